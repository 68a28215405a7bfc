// Пакет preview — нормализация запросов «открыть документ» в канонический
// превью-дескриптор. Строка общей таблицы, документ объекта и подобранный
// ассистентом файл описываются по-разному; оверлей предпросмотра принимает
// только одну форму — model.SelectedDocument.
package preview

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/virtualviewing/om-portal/internal/domain/model"
)

// ErrNoDocumentID — в запросе нет ни document_id, ни id.
// Без идентификатора построить URL предпросмотра невозможно.
var ErrNoDocumentID = errors.New("в запросе предпросмотра отсутствует идентификатор документа")

// URLBuilder строит абсолютный URL встроенного предпросмотра по идентификатору.
// Реализуется клиентом архивного бэкенда.
type URLBuilder interface {
	PreviewURL(documentID string) string
}

// Request — входная форма запроса предпросмотра. Поля опциональны:
// разные источники (таблица файлов, папка объекта, ответ ассистента)
// заполняют разные подмножества.
type Request struct {
	// DocumentID — канонический идентификатор (приоритетный)
	DocumentID string `json:"document_id,omitempty"`
	// ID — запасной идентификатор, используется при пустом DocumentID
	ID string `json:"id,omitempty"`
	// Filename — имя файла из общей таблицы
	Filename string `json:"filename,omitempty"`
	// Name — отображаемое имя из папки объекта
	Name string `json:"name,omitempty"`
	// System — категория из общей таблицы
	System string `json:"system,omitempty"`
	// Cat — категория из папки объекта
	Cat string `json:"cat,omitempty"`
	// DocType — тип документа
	DocType string `json:"doc_type,omitempty"`
	// Size — размер
	Size string `json:"size,omitempty"`
	// User — кто загрузил
	User string `json:"user,omitempty"`
	// Date — дата
	Date string `json:"date,omitempty"`
	// AssetHint — привязка к объекту
	AssetHint string `json:"asset_hint,omitempty"`
	// Building — здание из общей таблицы (запасной вариант привязки)
	Building string `json:"building,omitempty"`
	// IsLocal — локальный плейсхолдер без серверного превью
	IsLocal bool `json:"isLocal,omitempty"`
}

// Resolver нормализует запросы предпросмотра.
type Resolver struct {
	urls   URLBuilder
	logger *slog.Logger
}

// New создаёт резолвер предпросмотра.
func New(urls URLBuilder, logger *slog.Logger) *Resolver {
	return &Resolver{
		urls:   urls,
		logger: logger.With(slog.String("component", "preview_resolver")),
	}
}

// Resolve приводит запрос любой формы к каноническому дескриптору.
// Правила:
//   - идентификатор: document_id, иначе id; оба пустые — ErrNoDocumentID;
//   - имя: filename, иначе name, иначе последний сегмент идентификатора,
//     иначе "Document";
//   - категория: system, иначе cat, иначе "Document";
//   - отсутствующие метаданные заменяются плейсхолдерами, это не ошибка;
//   - URL предпросмотра строится по идентификатору; для локальных
//     плейсхолдеров URL не строится — серверного превью ещё нет.
func (r *Resolver) Resolve(req Request) (*model.SelectedDocument, error) {
	docID := req.DocumentID
	if docID == "" {
		docID = req.ID
	}
	if docID == "" {
		return nil, ErrNoDocumentID
	}

	name := firstNonEmpty(req.Filename, req.Name, trailingSegment(docID), model.DefaultDocName)
	cat := firstNonEmpty(req.System, req.Cat, model.DefaultDocName)
	assetHint := firstNonEmpty(req.AssetHint, req.Building)

	doc := &model.SelectedDocument{
		ID:        docID,
		Name:      name,
		Cat:       cat,
		DocType:   firstNonEmpty(req.DocType, model.DefaultDocType),
		Size:      firstNonEmpty(req.Size, model.DefaultDocSize),
		User:      firstNonEmpty(req.User, model.DefaultDocUser),
		Date:      firstNonEmpty(req.Date, model.DefaultDocDate),
		AssetHint: assetHint,
		IsLocal:   req.IsLocal,
	}

	if !req.IsLocal {
		doc.PreviewURL = r.urls.PreviewURL(docID)
	}

	r.logger.Debug("запрос предпросмотра нормализован",
		slog.String("document_id", docID),
		slog.String("name", doc.Name),
		slog.Bool("is_local", doc.IsLocal))

	return doc, nil
}

// firstNonEmpty возвращает первую непустую строку из аргументов.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// trailingSegment возвращает последний сегмент пути идентификатора.
// Некоторые бэкенды присылают идентификатор вида "folder/file.pdf" —
// в качестве имени берётся "file.pdf".
func trailingSegment(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
