package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/virtualviewing/om-portal/internal/domain/model"
)

// ErrNoMatch — в списке файлов нет документа, подходящего под название.
// Не критическая ошибка: открытие просто не происходит.
var ErrNoMatch = errors.New("документ по названию не найден")

// FileLister отдаёт актуальный список файлов архива.
// Реализуется клиентом архивного бэкенда.
type FileLister interface {
	ListFiles(ctx context.Context) ([]model.FileRecord, error)
}

// Matcher ищет FileRecord по свободному названию из карточки ассистента.
type Matcher struct {
	files  FileLister
	logger *slog.Logger
}

// NewMatcher создаёт матчер названий.
func NewMatcher(files FileLister, logger *slog.Logger) *Matcher {
	return &Matcher{
		files:  files,
		logger: logger.With(slog.String("component", "chat_matcher")),
	}
}

// MatchTitle ищет документ по названию из ответа ассистента.
// Список файлов всегда запрашивается заново: ответ ассистента может
// ссылаться на документ, загруженный после последней синхронизации.
//
// Перед сравнением обе стороны приводятся к нижнему регистру, а
// подчёркивания, дефисы и пробелы сводятся к одному разделителю:
// ассистент пишет "hvac compliance", файл называется
// "HVAC_Compliance_2023.pdf" — это один и тот же документ.
// Кандидат подходит, если его имя содержит название или название
// содержит имя без расширения .pdf. Побеждает первый подходящий
// в порядке списка, без скоринга. Отсутствие совпадения — ErrNoMatch.
func (m *Matcher) MatchTitle(ctx context.Context, title string) (*model.FileRecord, error) {
	cleanTitle := foldSeparators(title)
	if cleanTitle == "" {
		return nil, ErrNoMatch
	}

	files, err := m.files.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("обновление списка файлов для поиска: %w", err)
	}

	for i := range files {
		fname := foldSeparators(files[i].Filename)
		if fname == "" {
			continue
		}
		if strings.Contains(fname, cleanTitle) ||
			strings.Contains(cleanTitle, strings.TrimSuffix(fname, ".pdf")) {
			m.logger.Debug("название сопоставлено с документом",
				slog.String("title", title),
				slog.String("filename", files[i].Filename))
			return &files[i], nil
		}
	}

	m.logger.Info("поиск по названию не дал совпадений", slog.String("title", title))
	return nil, ErrNoMatch
}

// foldSeparators приводит строку к нижнему регистру и сводит
// подчёркивания, дефисы и последовательности пробелов к одному пробелу.
func foldSeparators(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(r)
	}
	return b.String()
}
