package model

// Статусы объекта портфеля.
const (
	// AssetStatusActive — объект активен (значение по умолчанию).
	AssetStatusActive = "active"
	// AssetStatusArchived — объект в архиве.
	AssetStatusArchived = "archived"
)

// DefaultAssetType — тип объекта по умолчанию, если бэкенд его не прислал.
const DefaultAssetType = "Commercial use"

// PortfolioAsset — управляемый объект (здание) портфеля.
type PortfolioAsset struct {
	// ID — идентификатор; серверный folder_name либо локальный UUID
	// optimistic-плейсхолдера до подтверждения создания
	ID string `json:"id"`
	// FolderName — имя серверной папки документов объекта
	FolderName string `json:"folder_name,omitempty"`
	// Name — отображаемое имя объекта
	Name string `json:"name"`
	// Img — URL обложки
	Img string `json:"img,omitempty"`
	// Status — active или archived; при отсутствии трактуется как active
	Status string `json:"status,omitempty"`
	// IsFavorite — клиентский флаг избранного. Никогда не persist'ится
	// и не приходит с сервера: при каждой загрузке сбрасывается в false.
	IsFavorite bool `json:"isFavorite"`
	// Docs — количество документов объекта
	Docs int `json:"docs,omitempty"`
	// Type — тип объекта (по умолчанию "Commercial use")
	Type string `json:"type,omitempty"`
}

// Archived сообщает, находится ли объект в архиве.
func (a *PortfolioAsset) Archived() bool {
	return a.Status == AssetStatusArchived
}

// PortfolioStats — агрегированные счётчики портфеля, присылаемые бэкендом.
// Не путать с DerivedStats, которые портал считает сам по списку файлов.
type PortfolioStats struct {
	Companies  int `json:"companies"`
	Properties int `json:"properties"`
	Docs       int `json:"docs"`
}

// Portfolio — ответ GET /portfolio архивного бэкенда.
type Portfolio struct {
	Stats  PortfolioStats   `json:"stats"`
	Assets []PortfolioAsset `json:"assets"`
}
