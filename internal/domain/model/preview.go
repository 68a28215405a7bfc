package model

// Значения по умолчанию для отсутствующих полей превью-дескриптора.
// Отсутствие любого опционального поля не ошибка — подставляется плейсхолдер.
const (
	// DefaultDocName — имя документа, если не удалось определить настоящее.
	DefaultDocName = "Document"
	// DefaultDocType — тип документа по умолчанию.
	DefaultDocType = "General"
	// DefaultDocSize — размер по умолчанию.
	DefaultDocSize = "N/A"
	// DefaultDocDate — дата по умолчанию.
	DefaultDocDate = "Verified"
	// DefaultDocUser — загрузивший по умолчанию.
	DefaultDocUser = "System"
)

// SelectedDocument — канонический превью-дескриптор.
// Единственный контракт, который принимает оверлей предпросмотра:
// все источники запроса «открыть документ» (строка таблицы, ответ ассистента,
// прямая ссылка) нормализуются в эту форму. Наличие дескриптора в Store —
// единственный признак открытого превью.
type SelectedDocument struct {
	// ID — document_id документа
	ID string `json:"id"`
	// Name — отображаемое имя
	Name string `json:"name"`
	// Cat — категория (system) документа
	Cat string `json:"cat"`
	// DocType — тип документа
	DocType string `json:"doc_type"`
	// Size — размер
	Size string `json:"size"`
	// User — кто загрузил
	User string `json:"user"`
	// Date — дата
	Date string `json:"date"`
	// AssetHint — привязка к объекту
	AssetHint string `json:"asset_hint,omitempty"`
	// IsLocal — true для локального плейсхолдера без серверного превью
	IsLocal bool `json:"isLocal"`
	// PreviewURL — абсолютный URL встроенного предпросмотра
	PreviewURL string `json:"previewUrl"`
}
