package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/virtualviewing/om-portal/internal/domain/model"
)

func TestParseAnswer_Cards(t *testing.T) {
	answer := "Document Name | Status | Info\n" +
		"--- | --- | ---\n" +
		"Fire Safety Cert | Present | Expires 2027\n" +
		"Asbestos Survey | Missing | Not uploaded\n"

	entries := ParseAnswer(answer)
	if len(entries) != 2 {
		t.Fatalf("получено %d элементов, ожидается 2 (заголовок и линейка отбрасываются)", len(entries))
	}

	if entries[0].Title != "Fire Safety Cert" || !entries[0].Present {
		t.Errorf("первая карточка разобрана неверно: %+v", entries[0])
	}
	if entries[0].Info != "Expires 2027" {
		t.Errorf("Info = %q, ожидается Expires 2027", entries[0].Info)
	}
	if entries[1].Title != "Asbestos Survey" || entries[1].Present {
		t.Errorf("вторая карточка разобрана неверно: %+v", entries[1])
	}
}

func TestParseAnswer_PlainText(t *testing.T) {
	entries := ParseAnswer("В архиве 12 документов по отоплению.\n\nУточните здание.")
	if len(entries) != 2 {
		t.Fatalf("получено %d элементов, ожидается 2", len(entries))
	}
	for _, e := range entries {
		if e.Text == "" || e.Title != "" {
			t.Errorf("ожидается текстовый элемент, получено: %+v", e)
		}
	}
}

func TestParseAnswer_SourceFileMarker(t *testing.T) {
	entries := ParseAnswer("Нашёл подходящий документ.\nSOURCE_FILE: boiler_manual.pdf")
	if len(entries) != 2 {
		t.Fatalf("получено %d элементов, ожидается 2", len(entries))
	}

	card := entries[1]
	if card.Title != "boiler_manual.pdf" {
		t.Errorf("Title = %q, ожидается boiler_manual.pdf", card.Title)
	}
	if !card.Present {
		t.Error("карточка из SOURCE_FILE должна быть Present")
	}
}

func TestParseAnswer_StatusCaseInsensitive(t *testing.T) {
	entries := ParseAnswer("doc.pdf | PRESENT")
	if len(entries) != 1 || !entries[0].Present {
		t.Fatalf("статус PRESENT должен распознаваться без учёта регистра: %+v", entries)
	}
}

func TestParseAnswer_Empty(t *testing.T) {
	if entries := ParseAnswer(""); len(entries) != 0 {
		t.Errorf("пустой ответ должен давать пустой список, получено: %+v", entries)
	}
}

// fakeLister отдаёт фиксированный список файлов и считает вызовы.
type fakeLister struct {
	files []model.FileRecord
	err   error
	calls int
}

func (f *fakeLister) ListFiles(ctx context.Context) ([]model.FileRecord, error) {
	f.calls++
	return f.files, f.err
}

func newTestMatcher(lister *fakeLister) *Matcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMatcher(lister, logger)
}

func TestMatchTitle_SubstringMatch(t *testing.T) {
	lister := &fakeLister{files: []model.FileRecord{
		{DocumentID: "d1", Filename: "HVAC_Compliance_2023.pdf"},
	}}
	m := newTestMatcher(lister)

	match, err := m.MatchTitle(context.Background(), "hvac_compliance")
	if err != nil {
		t.Fatalf("MatchTitle() вернул ошибку: %v", err)
	}
	if match.DocumentID != "d1" {
		t.Errorf("найден документ %q, ожидается d1", match.DocumentID)
	}
}

func TestMatchTitle_SeparatorFolding(t *testing.T) {
	// Ассистент пишет название через пробелы, файлы именуются
	// через подчёркивания — разделители не должны мешать совпадению
	lister := &fakeLister{files: []model.FileRecord{
		{DocumentID: "d1", Filename: "HVAC_Compliance_2023.pdf"},
	}}
	m := newTestMatcher(lister)

	match, err := m.MatchTitle(context.Background(), "hvac compliance")
	if err != nil {
		t.Fatalf("MatchTitle() вернул ошибку: %v", err)
	}
	if match.DocumentID != "d1" {
		t.Errorf("найден документ %q, ожидается d1", match.DocumentID)
	}

	// И в обратную сторону: название с дефисами против имени с подчёркиваниями
	if _, err := m.MatchTitle(context.Background(), "hvac-compliance-2023"); err != nil {
		t.Errorf("дефисы должны сводиться к тому же разделителю, err = %v", err)
	}
}

func TestMatchTitle_ReverseContainment(t *testing.T) {
	// Название длиннее имени файла: имя без .pdf должно входить в название
	lister := &fakeLister{files: []model.FileRecord{
		{DocumentID: "d2", Filename: "boiler_manual.pdf"},
	}}
	m := newTestMatcher(lister)

	match, err := m.MatchTitle(context.Background(), "Annual boiler_manual inspection copy")
	if err != nil {
		t.Fatalf("MatchTitle() вернул ошибку: %v", err)
	}
	if match.DocumentID != "d2" {
		t.Errorf("найден документ %q, ожидается d2", match.DocumentID)
	}
}

func TestMatchTitle_FirstWins(t *testing.T) {
	lister := &fakeLister{files: []model.FileRecord{
		{DocumentID: "first", Filename: "report_2023.pdf"},
		{DocumentID: "second", Filename: "report_2024.pdf"},
	}}
	m := newTestMatcher(lister)

	match, err := m.MatchTitle(context.Background(), "report")
	if err != nil {
		t.Fatalf("MatchTitle() вернул ошибку: %v", err)
	}
	if match.DocumentID != "first" {
		t.Errorf("при неоднозначном названии побеждает первый в списке, получен %q", match.DocumentID)
	}
}

func TestMatchTitle_NoMatch(t *testing.T) {
	lister := &fakeLister{files: []model.FileRecord{
		{DocumentID: "d1", Filename: "fire_cert.pdf"},
	}}
	m := newTestMatcher(lister)

	_, err := m.MatchTitle(context.Background(), "asbestos survey")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, ожидается ErrNoMatch", err)
	}
}

func TestMatchTitle_EmptyTitle(t *testing.T) {
	lister := &fakeLister{files: []model.FileRecord{
		{DocumentID: "d1", Filename: "fire_cert.pdf"},
	}}
	m := newTestMatcher(lister)

	if _, err := m.MatchTitle(context.Background(), "   "); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("пустое название не должно ничего находить, err = %v", err)
	}
	if lister.calls != 0 {
		t.Error("при пустом названии список файлов запрашиваться не должен")
	}
}

func TestMatchTitle_SkipsEmptyFilenames(t *testing.T) {
	// Запись с пустым именем иначе совпадала бы с любым названием
	lister := &fakeLister{files: []model.FileRecord{
		{DocumentID: "broken", Filename: ""},
		{DocumentID: "ok", Filename: "lift_service.pdf"},
	}}
	m := newTestMatcher(lister)

	match, err := m.MatchTitle(context.Background(), "lift_service")
	if err != nil {
		t.Fatalf("MatchTitle() вернул ошибку: %v", err)
	}
	if match.DocumentID != "ok" {
		t.Errorf("найден документ %q, записи без имени должны пропускаться", match.DocumentID)
	}
}

func TestMatchTitle_AlwaysRefetches(t *testing.T) {
	lister := &fakeLister{files: []model.FileRecord{
		{DocumentID: "d1", Filename: "fire_cert.pdf"},
	}}
	m := newTestMatcher(lister)

	m.MatchTitle(context.Background(), "fire_cert")
	m.MatchTitle(context.Background(), "fire_cert")
	if lister.calls != 2 {
		t.Errorf("каждый поиск должен заново запрашивать список, вызовов: %d", lister.calls)
	}
}

func TestMatchTitle_FetchError(t *testing.T) {
	lister := &fakeLister{err: errors.New("бэкенд недоступен")}
	m := newTestMatcher(lister)

	_, err := m.MatchTitle(context.Background(), "fire_cert")
	if err == nil || errors.Is(err, ErrNoMatch) {
		t.Fatalf("ошибка запроса списка должна пробрасываться, err = %v", err)
	}
}
