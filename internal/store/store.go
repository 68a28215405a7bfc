// Пакет store — in-memory зеркало состояния архива: список файлов,
// портфель объектов, кэш документов по папкам и активный превью-дескриптор.
// Единственный источник правды для HTTP-обработчиков портала.
//
// Контракт optimistic-мутаций единый для всех операций с серверной
// стороной: изменение применяется к зеркалу сразу, затем выполняется
// запрос к бэкенду; при ошибке локальное изменение откатывается и
// ошибка возвращается вызывающему. Подтверждённое сервером состояние
// всегда финально.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/virtualviewing/om-portal/internal/archive"
	"github.com/virtualviewing/om-portal/internal/domain/model"
)

var (
	// ErrAssetNotFound — объект с таким идентификатором отсутствует в зеркале.
	ErrAssetNotFound = errors.New("объект не найден")
	// ErrDocNotFound — документ отсутствует в кэше папки объекта.
	ErrDocNotFound = errors.New("документ не найден")
	// ErrNotLoaded — зеркало ещё ни разу не синхронизировалось с бэкендом.
	ErrNotLoaded = errors.New("зеркало ещё не загружено")
)

// Gateway — подмножество клиента архивного бэкенда, нужное зеркалу.
type Gateway interface {
	ListFiles(ctx context.Context) ([]model.FileRecord, error)
	Portfolio(ctx context.Context) (*model.Portfolio, error)
	AssetDocs(ctx context.Context, folderName string) ([]model.AssetDoc, error)
	CreateAsset(ctx context.Context, name, image string) (*archive.CreateAssetResponse, error)
	UpdateAsset(ctx context.Context, folderName, name, image string) error
	DeleteAsset(ctx context.Context, folderName string) error
	DeleteAssetDoc(ctx context.Context, folderName, docName string) error
	ClassifyDocument(ctx context.Context, folderName, filename string, file io.Reader) (*archive.ClassifyResult, error)
}

// Store — потокобезопасное зеркало состояния архива.
type Store struct {
	gw     Gateway
	logger *slog.Logger

	mu          sync.RWMutex
	files       []model.FileRecord
	assets      []model.PortfolioAsset
	stats       model.PortfolioStats
	docs        map[string][]model.AssetDoc
	selected    *model.SelectedDocument
	search      string
	loaded      bool
	lastRefresh time.Time
}

// New создаёт пустое зеркало. До первого Refresh оно не загружено.
func New(gw Gateway, logger *slog.Logger) *Store {
	return &Store{
		gw:     gw,
		logger: logger.With(slog.String("component", "store")),
		docs:   make(map[string][]model.AssetDoc),
	}
}

// Refresh синхронизирует зеркало с бэкендом: файлы и портфель
// запрашиваются параллельно, зеркало публикуется только когда
// завершились оба запроса. Частичная публикация не выполняется —
// при любой ошибке прежнее состояние остаётся нетронутым.
func (s *Store) Refresh(ctx context.Context) error {
	started := time.Now()

	var (
		wg       sync.WaitGroup
		files    []model.FileRecord
		filesErr error
		p        *model.Portfolio
		pErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		files, filesErr = s.gw.ListFiles(ctx)
	}()
	go func() {
		defer wg.Done()
		p, pErr = s.gw.Portfolio(ctx)
	}()
	wg.Wait()

	if err := errors.Join(filesErr, pErr); err != nil {
		return fmt.Errorf("синхронизация зеркала: %w", err)
	}

	assets := annotateAssets(p.Assets)

	s.mu.Lock()
	s.files = files
	s.assets = assets
	s.stats = p.Stats
	s.loaded = true
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	s.logger.Info("зеркало синхронизировано",
		slog.Int("files", len(files)),
		slog.Int("assets", len(assets)),
		slog.Duration("duration", time.Since(started)))

	return nil
}

// annotateAssets нормализует свежезагруженные объекты портфеля:
// избранное всегда сбрасывается, статус и тип получают значения
// по умолчанию, идентификатор при отсутствии берётся из folder_name.
func annotateAssets(assets []model.PortfolioAsset) []model.PortfolioAsset {
	out := make([]model.PortfolioAsset, len(assets))
	for i, a := range assets {
		a.IsFavorite = false
		if a.Status == "" {
			a.Status = model.AssetStatusActive
		}
		if a.Type == "" {
			a.Type = model.DefaultAssetType
		}
		if a.ID == "" {
			a.ID = a.FolderName
		}
		out[i] = a
	}
	return out
}

// Loaded сообщает, прошла ли хотя бы одна успешная синхронизация.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LastRefresh возвращает время последней успешной синхронизации.
func (s *Store) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Files возвращает копию списка файлов зеркала.
func (s *Store) Files() []model.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FileRecord, len(s.files))
	copy(out, s.files)
	return out
}

// FilteredFiles возвращает файлы, подходящие под поисковый запрос.
// Пустой запрос — весь список. Сравнение без учёта регистра по имени,
// категории, зданию и привязке к объекту.
func (s *Store) FilteredFiles(query string) []model.FileRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.Files()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.FileRecord
	for _, f := range s.files {
		if strings.Contains(strings.ToLower(f.Filename), q) ||
			strings.Contains(strings.ToLower(f.System), q) ||
			strings.Contains(strings.ToLower(f.Building), q) ||
			strings.Contains(strings.ToLower(f.AssetHint), q) {
			out = append(out, f)
		}
	}
	return out
}

// Assets возвращает копию списка объектов портфеля.
func (s *Store) Assets() []model.PortfolioAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PortfolioAsset, len(s.assets))
	copy(out, s.assets)
	return out
}

// Stats возвращает агрегированные счётчики портфеля с бэкенда.
func (s *Store) Stats() model.PortfolioStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// DerivedStats считает производную статистику по списку файлов:
// количество документов, уникальных зданий и категорий, а также
// документов с привязкой к объекту. Пустые значения не считаются
// уникальными позициями.
func (s *Store) DerivedStats() model.DerivedStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buildings := make(map[string]struct{})
	systems := make(map[string]struct{})
	hinted := 0
	for _, f := range s.files {
		if f.Building != "" {
			buildings[f.Building] = struct{}{}
		}
		if f.System != "" {
			systems[f.System] = struct{}{}
		}
		if f.AssetHint != "" {
			hinted++
		}
	}

	return model.DerivedStats{
		TotalDocs: len(s.files),
		Buildings: len(buildings),
		Systems:   len(systems),
		Assets:    hinted,
	}
}

// --- Поиск и выбор документа ---

// SetSearch сохраняет активный поисковый запрос.
func (s *Store) SetSearch(query string) {
	s.mu.Lock()
	s.search = query
	s.mu.Unlock()
}

// Search возвращает активный поисковый запрос.
func (s *Store) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// Select делает документ активным превью-дескриптором.
// Наличие выбранного документа — единственный признак открытого превью.
func (s *Store) Select(doc *model.SelectedDocument) {
	s.mu.Lock()
	s.selected = doc
	s.mu.Unlock()
}

// ClearSelected закрывает превью.
func (s *Store) ClearSelected() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// Selected возвращает активный превью-дескриптор или nil.
func (s *Store) Selected() *model.SelectedDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	doc := *s.selected
	return &doc
}

// --- Клиентские флаги объектов (без серверной стороны) ---

// ToggleFavorite переключает флаг избранного объекта и возвращает
// новое значение. Флаг живёт только в зеркале: после Refresh
// все объекты снова не в избранном.
func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findAsset(id)
	if i < 0 {
		return false, fmt.Errorf("переключение избранного %s: %w", id, ErrAssetNotFound)
	}
	s.assets[i].IsFavorite = !s.assets[i].IsFavorite
	return s.assets[i].IsFavorite, nil
}

// SetArchiveStatus переводит объект в архив или возвращает из него.
// Архивирование принудительно снимает флаг избранного.
func (s *Store) SetArchiveStatus(id string, archived bool) (*model.PortfolioAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findAsset(id)
	if i < 0 {
		return nil, fmt.Errorf("смена статуса %s: %w", id, ErrAssetNotFound)
	}

	if archived {
		s.assets[i].Status = model.AssetStatusArchived
		s.assets[i].IsFavorite = false
	} else {
		s.assets[i].Status = model.AssetStatusActive
	}

	a := s.assets[i]
	return &a, nil
}

// --- Optimistic-мутации с серверной стороной ---

// CreateAsset создаёт объект: в зеркало сразу вставляется плейсхолдер
// с временным идентификатором, затем выполняется запрос к бэкенду.
// Успех — плейсхолдер на месте заменяется серверным folder_name,
// ошибка — плейсхолдер удаляется.
func (s *Store) CreateAsset(ctx context.Context, name, image string) (*model.PortfolioAsset, error) {
	tempID := uuid.NewString()
	placeholder := model.PortfolioAsset{
		ID:     tempID,
		Name:   name,
		Img:    image,
		Status: model.AssetStatusActive,
		Type:   model.DefaultAssetType,
	}

	s.mu.Lock()
	s.assets = append([]model.PortfolioAsset{placeholder}, s.assets...)
	s.mu.Unlock()

	resp, err := s.gw.CreateAsset(ctx, name, image)
	if err != nil {
		// Откат: убираем плейсхолдер
		s.mu.Lock()
		s.removeAsset(tempID)
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findAsset(tempID)
	if i < 0 {
		// Плейсхолдер вытеснен параллельным Refresh — серверное состояние финально
		return &placeholder, nil
	}
	s.assets[i].ID = resp.FolderName
	s.assets[i].FolderName = resp.FolderName
	a := s.assets[i]

	s.logger.Info("объект создан", slog.String("folder_name", resp.FolderName))
	return &a, nil
}

// UpdateAsset переименовывает объект и меняет обложку: зеркало
// обновляется сразу, при ошибке бэкенда прежние значения возвращаются.
func (s *Store) UpdateAsset(ctx context.Context, id, name, image string) (*model.PortfolioAsset, error) {
	s.mu.Lock()
	i := s.findAsset(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("обновление объекта %s: %w", id, ErrAssetNotFound)
	}
	prevName, prevImg := s.assets[i].Name, s.assets[i].Img
	folder := s.assets[i].FolderName
	if folder == "" {
		folder = s.assets[i].ID
	}
	s.assets[i].Name = name
	if image != "" {
		s.assets[i].Img = image
	}
	a := s.assets[i]
	s.mu.Unlock()

	if err := s.gw.UpdateAsset(ctx, folder, name, image); err != nil {
		// Откат переименования
		s.mu.Lock()
		if j := s.findAsset(id); j >= 0 {
			s.assets[j].Name = prevName
			s.assets[j].Img = prevImg
		}
		s.mu.Unlock()
		return nil, err
	}

	return &a, nil
}

// DeleteAsset удаляет объект: из зеркала сразу, при ошибке бэкенда
// объект возвращается на прежнюю позицию.
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.findAsset(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("удаление объекта %s: %w", id, ErrAssetNotFound)
	}
	removed := s.assets[i]
	s.assets = append(s.assets[:i], s.assets[i+1:]...)
	s.mu.Unlock()

	folder := removed.FolderName
	if folder == "" {
		folder = removed.ID
	}

	if err := s.gw.DeleteAsset(ctx, folder); err != nil {
		// Откат: возвращаем объект на прежнее место
		s.mu.Lock()
		if i > len(s.assets) {
			i = len(s.assets)
		}
		s.assets = append(s.assets[:i], append([]model.PortfolioAsset{removed}, s.assets[i:]...)...)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	delete(s.docs, folder)
	s.mu.Unlock()
	return nil
}

// AssetDocs возвращает документы папки объекта, запрашивая их с бэкенда
// и обновляя кэш. Кэш нужен optimistic-операциям над документами.
func (s *Store) AssetDocs(ctx context.Context, folderName string) ([]model.AssetDoc, error) {
	docs, err := s.gw.AssetDocs(ctx, folderName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.docs[folderName] = docs
	s.mu.Unlock()

	out := make([]model.AssetDoc, len(docs))
	copy(out, docs)
	return out, nil
}

// CachedAssetDocs возвращает закэшированные документы папки без сетевого
// запроса. Второе значение — false, если папка ещё не загружалась.
func (s *Store) CachedAssetDocs(folderName string) ([]model.AssetDoc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.docs[folderName]
	if !ok {
		return nil, false
	}
	out := make([]model.AssetDoc, len(docs))
	copy(out, docs)
	return out, true
}

// DeleteAssetDoc удаляет документ из папки объекта: из кэша сразу,
// при ошибке бэкенда документ возвращается на прежнюю позицию.
func (s *Store) DeleteAssetDoc(ctx context.Context, folderName, docName string) error {
	s.mu.Lock()
	docs := s.docs[folderName]
	idx := -1
	for i := range docs {
		if docs[i].Name == docName {
			idx = i
			break
		}
	}
	var removed model.AssetDoc
	if idx >= 0 {
		removed = docs[idx]
		s.docs[folderName] = append(docs[:idx], docs[idx+1:]...)
	}
	s.mu.Unlock()

	if err := s.gw.DeleteAssetDoc(ctx, folderName, docName); err != nil {
		if idx >= 0 {
			// Откат: возвращаем документ в кэш
			s.mu.Lock()
			docs := s.docs[folderName]
			if idx > len(docs) {
				idx = len(docs)
			}
			s.docs[folderName] = append(docs[:idx], append([]model.AssetDoc{removed}, docs[idx:]...)...)
			s.mu.Unlock()
		}
		return err
	}
	return nil
}

// UploadDocument загружает документ в папку объекта.
// В кэш папки сразу вставляется плейсхолдер со статусом Processing
// и временным идентификатором; после ответа классификации плейсхолдер
// на той же позиции заменяется серверными метаданными, строка никогда
// не дублируется. Ошибка загрузки убирает плейсхолдер — «застрявших»
// строк Processing не остаётся.
func (s *Store) UploadDocument(ctx context.Context, folderName, filename string, file io.Reader) (*model.AssetDoc, error) {
	tempID := uuid.NewString()
	placeholder := model.AssetDoc{
		ID:      tempID,
		Name:    filename,
		Status:  model.DocStatusProcessing,
		User:    model.DefaultDocUser,
		IsLocal: true,
	}

	s.mu.Lock()
	s.docs[folderName] = append([]model.AssetDoc{placeholder}, s.docs[folderName]...)
	s.mu.Unlock()

	result, err := s.gw.ClassifyDocument(ctx, folderName, filename, file)
	if err != nil {
		// Откат: плейсхолдер не должен остаться висеть в Processing
		s.mu.Lock()
		s.removeDoc(folderName, tempID)
		s.mu.Unlock()
		return nil, err
	}

	final := model.AssetDoc{
		ID:      result.DocumentID,
		Name:    result.Name,
		Cat:     result.Category,
		DocType: result.DocumentType,
		Size:    result.Size,
		Status:  model.DocStatusVerified,
		User:    model.DefaultDocUser,
		IsLocal: false,
	}
	if final.Name == "" {
		final.Name = filename
	}

	s.mu.Lock()
	docs := s.docs[folderName]
	replaced := false
	for i := range docs {
		if docs[i].ID == tempID {
			docs[i] = final
			replaced = true
			break
		}
	}
	if !replaced {
		s.docs[folderName] = append([]model.AssetDoc{final}, docs...)
	}
	s.mu.Unlock()

	s.logger.Info("документ загружен и классифицирован",
		slog.String("folder_name", folderName),
		slog.String("document_id", final.ID),
		slog.String("category", final.Cat))

	return &final, nil
}

// --- Внутренние помощники (вызываются под s.mu) ---

// findAsset ищет объект по id или folder_name, возвращает индекс или -1.
func (s *Store) findAsset(id string) int {
	for i := range s.assets {
		if s.assets[i].ID == id || (s.assets[i].FolderName != "" && s.assets[i].FolderName == id) {
			return i
		}
	}
	return -1
}

// removeAsset убирает объект по идентификатору, если он есть.
func (s *Store) removeAsset(id string) {
	if i := s.findAsset(id); i >= 0 {
		s.assets = append(s.assets[:i], s.assets[i+1:]...)
	}
}

// removeDoc убирает документ из кэша папки по идентификатору.
func (s *Store) removeDoc(folderName, id string) {
	docs := s.docs[folderName]
	for i := range docs {
		if docs[i].ID == id {
			s.docs[folderName] = append(docs[:i], docs[i+1:]...)
			return
		}
	}
}
