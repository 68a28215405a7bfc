package archive

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testLogger возвращает логгер, пишущий в никуда.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("https://archive.example.com/", 5*time.Second, testLogger())
	if c.BaseURL() != "https://archive.example.com" {
		t.Errorf("BaseURL() = %q, trailing slash должен быть убран", c.BaseURL())
	}
}

func TestPreviewURL(t *testing.T) {
	c := New("https://archive.example.com", 5*time.Second, testLogger())

	tests := []struct {
		name     string
		docID    string
		expected string
	}{
		{
			name:     "простой идентификатор",
			docID:    "doc-123",
			expected: "https://archive.example.com/preview/doc-123",
		},
		{
			name:     "пробелы кодируются",
			docID:    "Fire Safety Cert.pdf",
			expected: "https://archive.example.com/preview/Fire%20Safety%20Cert.pdf",
		},
		{
			name:     "слэш кодируется",
			docID:    "a/b",
			expected: "https://archive.example.com/preview/a%2Fb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.PreviewURL(tt.docID); got != tt.expected {
				t.Errorf("PreviewURL(%q) = %q, ожидается %q", tt.docID, got, tt.expected)
			}
		})
	}
}

func TestListFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			t.Errorf("путь запроса = %q, ожидается /files", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("метод = %q, ожидается GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"document_id":"d1","filename":"boiler_manual.pdf","system":"Heating","building":"Block A"},
			{"document_id":"d2","filename":"fire_cert.pdf"}
		]`)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	files, err := c.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles() вернул ошибку: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("получено %d файлов, ожидается 2", len(files))
	}
	if files[0].DocumentID != "d1" || files[0].System != "Heating" {
		t.Errorf("первый файл декодирован неверно: %+v", files[0])
	}
}

func TestListFiles_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	if _, err := c.ListFiles(context.Background()); err == nil {
		t.Fatal("ListFiles() при ответе 500 должен вернуть ошибку")
	}
}

func TestListFiles_Unavailable(t *testing.T) {
	// Закрытый сервер имитирует недоступный бэкенд
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := New(server.URL, time.Second, testLogger())
	if _, err := c.ListFiles(context.Background()); err == nil {
		t.Fatal("ListFiles() при недоступном бэкенде должен вернуть ошибку")
	}
}

func TestPortfolio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio" {
			t.Errorf("путь запроса = %q, ожидается /portfolio", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"stats": {"companies": 2, "properties": 5, "docs": 120},
			"assets": [{"id":"blk-a","folder_name":"block_a","name":"Block A","status":"active","docs":40}]
		}`)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	p, err := c.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("Portfolio() вернул ошибку: %v", err)
	}
	if p.Stats.Docs != 120 {
		t.Errorf("Stats.Docs = %d, ожидается 120", p.Stats.Docs)
	}
	if len(p.Assets) != 1 || p.Assets[0].FolderName != "block_a" {
		t.Errorf("assets декодированы неверно: %+v", p.Assets)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected bool
	}{
		{"успех", `{"status":"success"}`, true},
		{"отказ", `{"status":"invalid_credentials"}`, false},
		{"пустой статус", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/login" || r.Method != http.MethodPost {
					t.Errorf("запрос %s %s, ожидается POST /login", r.Method, r.URL.Path)
				}
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("декодирование тела запроса: %v", err)
				}
				if body["email"] != "user@virtualviewing.com" {
					t.Errorf("email = %q, ожидается user@virtualviewing.com", body["email"])
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.response)
			}))
			defer server.Close()

			c := New(server.URL, 5*time.Second, testLogger())
			ok, err := c.Login(context.Background(), "user@virtualviewing.com", "pass")
			if err != nil {
				t.Fatalf("Login() вернул ошибку: %v", err)
			}
			if ok != tt.expected {
				t.Errorf("Login() = %v, ожидается %v", ok, tt.expected)
			}
		})
	}
}

func TestAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ask" {
			t.Errorf("путь запроса = %q, ожидается /ask", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["query"] == "" {
			t.Error("поле query пустое")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"answer":"boiler_manual.pdf | Verified | Block A"}`)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	resp, err := c.Ask(context.Background(), "где инструкция котла?")
	if err != nil {
		t.Fatalf("Ask() вернул ошибку: %v", err)
	}
	if resp.Text() != "boiler_manual.pdf | Verified | Block A" {
		t.Errorf("Text() = %q", resp.Text())
	}
}

func TestAsk_ErrorField(t *testing.T) {
	// Бэкенд кладёт текст отказа в error — он тоже показывается пользователю
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"error":"Индекс ещё строится, попробуйте позже"}`)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	resp, err := c.Ask(context.Background(), "вопрос")
	if err != nil {
		t.Fatalf("Ask() вернул ошибку: %v", err)
	}
	if resp.Text() != "Индекс ещё строится, попробуйте позже" {
		t.Errorf("Text() = %q, ожидается текст из поля error", resp.Text())
	}
}

func TestAssetDocs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio/block_a/docs" {
			t.Errorf("путь запроса = %q, ожидается /portfolio/block_a/docs", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"d1","name":"lift_service.pdf","cat":"Lifts","status":"Verified"}]`)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	docs, err := c.AssetDocs(context.Background(), "block_a")
	if err != nil {
		t.Fatalf("AssetDocs() вернул ошибку: %v", err)
	}
	if len(docs) != 1 || docs[0].Cat != "Lifts" {
		t.Errorf("документы декодированы неверно: %+v", docs)
	}
}

func TestClassifyDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify-document" || r.Method != http.MethodPost {
			t.Errorf("запрос %s %s, ожидается POST /classify-document", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("разбор multipart формы: %v", err)
		}
		if got := r.FormValue("folder_name"); got != "block_a" {
			t.Errorf("folder_name = %q, ожидается block_a", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("чтение файла из формы: %v", err)
		}
		defer file.Close()
		if header.Filename != "pump_spec.pdf" {
			t.Errorf("имя файла = %q, ожидается pump_spec.pdf", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "fake pdf content" {
			t.Errorf("содержимое файла = %q", string(content))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"document_id":"d99","name":"pump_spec.pdf","category":"Plumbing","document_type":"Specification"}`)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	result, err := c.ClassifyDocument(context.Background(), "block_a", "pump_spec.pdf",
		strings.NewReader("fake pdf content"))
	if err != nil {
		t.Fatalf("ClassifyDocument() вернул ошибку: %v", err)
	}
	if result.DocumentID != "d99" || result.Category != "Plumbing" {
		t.Errorf("результат классификации неверен: %+v", result)
	}
}

func TestCreateAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create-asset" {
			t.Errorf("путь запроса = %q, ожидается /create-asset", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Block C" {
			t.Errorf("name = %q, ожидается Block C", body["name"])
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"success","folder_name":"block_c"}`)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	resp, err := c.CreateAsset(context.Background(), "Block C", "https://img.example/c.jpg")
	if err != nil {
		t.Fatalf("CreateAsset() вернул ошибку: %v", err)
	}
	if resp.FolderName != "block_c" {
		t.Errorf("FolderName = %q, ожидается block_c", resp.FolderName)
	}
}

func TestCreateAsset_BackendRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"duplicate"}`)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	if _, err := c.CreateAsset(context.Background(), "Block C", ""); err == nil {
		t.Fatal("CreateAsset() при статусе не success должен вернуть ошибку")
	}
}

func TestUpdateAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio/assets/block_a" || r.Method != http.MethodPatch {
			t.Errorf("запрос %s %s, ожидается PATCH /portfolio/assets/block_a", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Block A (Renovated)" {
			t.Errorf("name = %q", body["name"])
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	err := c.UpdateAsset(context.Background(), "block_a", "Block A (Renovated)", "")
	if err != nil {
		t.Fatalf("UpdateAsset() вернул ошибку: %v", err)
	}
}

func TestDeleteAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio/assets/block_a" || r.Method != http.MethodDelete {
			t.Errorf("запрос %s %s, ожидается DELETE /portfolio/assets/block_a", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	if err := c.DeleteAsset(context.Background(), "block_a"); err != nil {
		t.Fatalf("DeleteAsset() вернул ошибку: %v", err)
	}
}

func TestDeleteAssetDoc(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Имя документа с пробелами должно percent-кодироваться
		if r.URL.EscapedPath() != "/portfolio/block_a/docs/fire%20cert.pdf" {
			t.Errorf("путь запроса = %q", r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	if err := c.DeleteAssetDoc(context.Background(), "block_a", "fire cert.pdf"); err != nil {
		t.Fatalf("DeleteAssetDoc() вернул ошибку: %v", err)
	}
}

func TestDeleteAssetDoc_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	if err := c.DeleteAssetDoc(context.Background(), "block_a", "missing.pdf"); err == nil {
		t.Fatal("DeleteAssetDoc() при ответе 404 должен вернуть ошибку")
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.ListFiles(ctx); err == nil {
		t.Fatal("ListFiles() с отменённым контекстом должен вернуть ошибку")
	}
}
