// Пакет model — доменные модели O&M Portal.
// Структуры соответствуют JSON-контракту архивного бэкенда (§ wire contract),
// поэтому несут json-теги и используются как в gateway, так и в ответах BFF API.
package model

// FileRecord — запись документа в архиве, как её знает бэкенд.
// Все поля кроме DocumentID и Filename опциональны: бэкенд может их не прислать,
// потребители обязаны подставлять значения по умолчанию, а не падать.
type FileRecord struct {
	// DocumentID — стабильный идентификатор документа
	DocumentID string `json:"document_id"`
	// Filename — оригинальное имя файла
	Filename string `json:"filename"`
	// System — категория классификации (HVAC, Electrical, Fire, Plumbing, ...)
	System string `json:"system,omitempty"`
	// DocumentType — тип документа (сертификат, отчёт, ...)
	DocumentType string `json:"document_type,omitempty"`
	// AssetHint — свободная привязка к объекту портфеля
	AssetHint string `json:"asset_hint,omitempty"`
	// Building — здание, к которому относится документ
	Building string `json:"building,omitempty"`
	// Size — размер в человекочитаемом виде ("2.4 MB")
	Size string `json:"size,omitempty"`
	// Date — дата документа (строка отображения)
	Date string `json:"date,omitempty"`
	// User — кто загрузил документ
	User string `json:"user,omitempty"`
}

// AssetDoc — документ в папке одного объекта портфеля
// (ответ GET /portfolio/{folder_name}/docs).
type AssetDoc struct {
	// ID — идентификатор документа; для optimistic-плейсхолдера — временный UUID
	ID string `json:"id"`
	// Name — имя файла
	Name string `json:"name"`
	// Lang — язык документа (по умолчанию EN)
	Lang string `json:"lang,omitempty"`
	// Cat — категория классификации
	Cat string `json:"cat,omitempty"`
	// DocType — тип документа
	DocType string `json:"doc_type,omitempty"`
	// AssetHint — привязка к объекту
	AssetHint string `json:"asset_hint,omitempty"`
	// Size — размер в человекочитаемом виде
	Size string `json:"size,omitempty"`
	// Status — статус обработки (Processing, Verified)
	Status string `json:"status,omitempty"`
	// Date — дата загрузки
	Date string `json:"date,omitempty"`
	// User — кто загрузил
	User string `json:"user,omitempty"`
	// IsLocal — true для локального плейсхолдера, ещё не подтверждённого сервером
	IsLocal bool `json:"isLocal"`
}

// Статусы обработки документа.
const (
	// DocStatusProcessing — документ загружен, классификация ещё идёт.
	DocStatusProcessing = "Processing"
	// DocStatusVerified — классификация завершена, документ подтверждён сервером.
	DocStatusVerified = "Verified"
)

// DerivedStats — статистика, вычисляемая порталом из списка файлов.
// Независима от PortfolioStats бэкенда — это два разных источника,
// смешивать их нельзя.
type DerivedStats struct {
	// TotalDocs — общее количество документов
	TotalDocs int `json:"totalDocs"`
	// Buildings — количество уникальных зданий
	Buildings int `json:"buildings"`
	// Systems — количество уникальных непустых категорий
	Systems int `json:"systems"`
	// Assets — количество документов с привязкой к объекту
	Assets int `json:"assets"`
}
