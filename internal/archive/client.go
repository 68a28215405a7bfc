// Пакет archive — HTTP-клиент архивного бэкенда O&M.
// Единственная точка сетевого доступа портала: списки файлов и портфеля,
// аутентификация, вопрос-ответ ассистента, классификация и CRUD документов.
// Без retry и кэширования — каждый вызов это свежий сетевой запрос.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/virtualviewing/om-portal/internal/domain/model"
)

// PreviewPath — канонический маршрут встроенного предпросмотра.
// Старый вариант /direct_preview/ считается устаревшим и не используется.
const PreviewPath = "/preview/"

// LoginResponse — ответ POST /login.
type LoginResponse struct {
	Status string `json:"status"`
}

// AskResponse — ответ POST /ask. Бэкенд кладёт текст либо в answer,
// либо в error; оба поля показываются пользователю как реплика ассистента.
type AskResponse struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Text возвращает текст реплики ассистента независимо от того,
// в каком поле его прислал бэкенд.
func (r *AskResponse) Text() string {
	if r.Answer != "" {
		return r.Answer
	}
	return r.Error
}

// ClassifyResult — ответ POST /classify-document.
type ClassifyResult struct {
	DocumentID   string `json:"document_id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	DocumentType string `json:"document_type,omitempty"`
	AssetHint    string `json:"asset_hint,omitempty"`
	Size         string `json:"size,omitempty"`
}

// CreateAssetResponse — ответ POST /create-asset.
type CreateAssetResponse struct {
	Status     string `json:"status"`
	FolderName string `json:"folder_name"`
}

// Client — HTTP-клиент архивного бэкенда.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент архивного бэкенда.
// baseURL — базовый адрес бэкенда (trailing slash убирается),
// timeout — таймаут каждого запроса (защита от «зависших» индикаторов загрузки).
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "archive_client")),
	}
}

// BaseURL возвращает базовый адрес бэкенда (без trailing slash).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PreviewURL возвращает абсолютный URL предпросмотра документа.
// Идентификатор percent-кодируется как сегмент пути.
func (c *Client) PreviewURL(documentID string) string {
	return c.baseURL + PreviewPath + url.PathEscape(documentID)
}

// ListFiles запрашивает полный список документов архива.
// GET /files → массив FileRecord.
func (c *Client) ListFiles(ctx context.Context) ([]model.FileRecord, error) {
	var files []model.FileRecord
	if err := c.getJSON(ctx, "/files", &files); err != nil {
		return nil, fmt.Errorf("запрос списка файлов: %w", err)
	}
	return files, nil
}

// Portfolio запрашивает портфель объектов со статистикой.
// GET /portfolio → {stats, assets}.
func (c *Client) Portfolio(ctx context.Context) (*model.Portfolio, error) {
	var p model.Portfolio
	if err := c.getJSON(ctx, "/portfolio", &p); err != nil {
		return nil, fmt.Errorf("запрос портфеля: %w", err)
	}
	return &p, nil
}

// Login проверяет учётные данные на бэкенде.
// POST /login {email, password} → true только при status == "success".
func (c *Client) Login(ctx context.Context, email, password string) (bool, error) {
	body := map[string]string{"email": email, "password": password}

	var resp LoginResponse
	if err := c.postJSON(ctx, "/login", body, &resp); err != nil {
		return false, fmt.Errorf("запрос аутентификации: %w", err)
	}
	return resp.Status == "success", nil
}

// Ask отправляет вопрос ассистенту.
// POST /ask {query} → {answer} либо {error}.
func (c *Client) Ask(ctx context.Context, query string) (*AskResponse, error) {
	body := map[string]string{"query": query}

	var resp AskResponse
	if err := c.postJSON(ctx, "/ask", body, &resp); err != nil {
		return nil, fmt.Errorf("запрос к ассистенту: %w", err)
	}
	return &resp, nil
}

// AssetDocs запрашивает документы папки одного объекта.
// GET /portfolio/{folder_name}/docs.
func (c *Client) AssetDocs(ctx context.Context, folderName string) ([]model.AssetDoc, error) {
	var docs []model.AssetDoc
	path := "/portfolio/" + url.PathEscape(folderName) + "/docs"
	if err := c.getJSON(ctx, path, &docs); err != nil {
		return nil, fmt.Errorf("запрос документов объекта %s: %w", folderName, err)
	}
	return docs, nil
}

// ClassifyDocument загружает файл на классификацию.
// POST /classify-document, multipart form {file, folder_name}.
// Бэкенд выполняет AI-классификацию и возвращает присвоенные метаданные.
func (c *Client) ClassifyDocument(ctx context.Context, folderName, filename string, file io.Reader) (*ClassifyResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("создание multipart формы: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("копирование файла в форму: %w", err)
	}
	if err := mw.WriteField("folder_name", folderName); err != nil {
		return nil, fmt.Errorf("запись folder_name в форму: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("закрытие multipart формы: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify-document", &buf)
	if err != nil {
		return nil, fmt.Errorf("создание запроса классификации: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос классификации %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("классификация %s: архив вернул статус %d: %s", filename, resp.StatusCode, string(body))
	}

	var result ClassifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("декодирование результата классификации: %w", err)
	}

	return &result, nil
}

// CreateAsset создаёт новый объект портфеля.
// POST /create-asset {name, image} → folder_name созданной папки.
func (c *Client) CreateAsset(ctx context.Context, name, image string) (*CreateAssetResponse, error) {
	body := map[string]string{"name": name, "image": image}

	var resp CreateAssetResponse
	if err := c.postJSON(ctx, "/create-asset", body, &resp); err != nil {
		return nil, fmt.Errorf("создание объекта %q: %w", name, err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("создание объекта %q: бэкенд вернул статус %q", name, resp.Status)
	}
	return &resp, nil
}

// UpdateAsset обновляет имя и обложку объекта.
// PATCH /portfolio/assets/{folder_name} {name, image}.
func (c *Client) UpdateAsset(ctx context.Context, folderName, name, image string) error {
	body := map[string]string{"name": name, "image": image}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("сериализация обновления объекта: %w", err)
	}

	path := "/portfolio/assets/" + url.PathEscape(folderName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("создание запроса обновления объекта: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("обновление объекта %s: %w", folderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("обновление объекта %s: архив вернул статус %d: %s", folderName, resp.StatusCode, string(respBody))
	}
	return nil
}

// DeleteAsset удаляет объект и его папку документов.
// DELETE /portfolio/assets/{folder_name}.
func (c *Client) DeleteAsset(ctx context.Context, folderName string) error {
	path := "/portfolio/assets/" + url.PathEscape(folderName)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("удаление объекта %s: %w", folderName, err)
	}
	return nil
}

// DeleteAssetDoc удаляет один документ из папки объекта.
// DELETE /portfolio/{folder_name}/docs/{doc_name}.
func (c *Client) DeleteAssetDoc(ctx context.Context, folderName, docName string) error {
	path := "/portfolio/" + url.PathEscape(folderName) + "/docs/" + url.PathEscape(docName)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("удаление документа %s/%s: %w", folderName, docName, err)
	}
	return nil
}

// --- Вспомогательные методы ---

// getJSON выполняет GET и декодирует JSON-ответ в out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("создание запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("архив вернул статус %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа: %w", err)
	}
	return nil
}

// postJSON выполняет POST с JSON-телом и декодирует JSON-ответ в out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("сериализация запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("архив вернул статус %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа: %w", err)
	}
	return nil
}

// delete выполняет DELETE и проверяет статус ответа.
func (c *Client) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("создание запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("архив вернул статус %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
