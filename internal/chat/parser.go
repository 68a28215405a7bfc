// Пакет chat — разбор ответов ассистента и поиск документа по названию
// из свободного текста.
package chat

import "strings"

// sourceFileMarker — явный маркер исходного файла в ответе ассистента.
const sourceFileMarker = "SOURCE_FILE:"

// Entry — один элемент разобранного ответа ассистента:
// либо карточка документа (Title непустой), либо обычный текст.
type Entry struct {
	// Title — название документа из карточки
	Title string `json:"title,omitempty"`
	// Status — статус из карточки (Present, Missing и т.п.)
	Status string `json:"status,omitempty"`
	// Info — дополнительная информация из карточки
	Info string `json:"info,omitempty"`
	// Present — статус равен "present" без учёта регистра;
	// только для таких карточек доступно открытие документа
	Present bool `json:"present"`
	// Text — обычная текстовая строка, если это не карточка
	Text string `json:"text,omitempty"`
}

// ParseAnswer разбирает текст ответа ассистента на элементы.
// Формат ответа — pipe-таблица "название | статус | информация".
// Строки-заголовки ("document name | status"), линейки ("---")
// и пустые строки отбрасываются. Строка с маркером SOURCE_FILE:
// превращается в карточку со статусом Present.
func ParseAnswer(answer string) []Entry {
	var entries []Entry

	for _, line := range strings.Split(answer, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "document name | status") || strings.Contains(lower, "---") {
			continue
		}

		if rest, ok := cutMarker(trimmed); ok {
			entries = append(entries, Entry{
				Title:   rest,
				Status:  "Present",
				Present: true,
			})
			continue
		}

		if strings.Contains(trimmed, "|") {
			parts := strings.Split(trimmed, "|")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			if len(parts) >= 2 {
				e := Entry{
					Title:   parts[0],
					Status:  parts[1],
					Present: strings.EqualFold(parts[1], "present"),
				}
				if len(parts) >= 3 {
					e.Info = parts[2]
				}
				entries = append(entries, e)
				continue
			}
		}

		entries = append(entries, Entry{Text: trimmed})
	}

	return entries
}

// cutMarker отрезает маркер SOURCE_FILE: от начала строки.
func cutMarker(line string) (string, bool) {
	if !strings.HasPrefix(strings.ToUpper(line), sourceFileMarker) {
		return "", false
	}
	return strings.TrimSpace(line[len(sourceFileMarker):]), true
}
