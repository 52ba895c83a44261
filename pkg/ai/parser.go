package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"mystery-server/internal/model"
)

// <<< Регулярное выражение для извлечения JSON из ```json ... ``` блока >>>
// (?s) - флаг: '.' совпадает с символом новой строки
// (?:\w+)? - опциональный идентификатор языка (json и т.д.), незахватываемый
// (.*?) - НЕЖАДНАЯ захватывающая группа 1: содержимое блока
var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:\w+)?\s*(.*?)\s*` + "```")

// Parser превращает сырой ответ модели в GeneratedNarrative. Тотальная
// функция: на любом входе возвращает валидную структуру, отмечая деградацию.
type Parser struct {
	logger *zap.Logger
}

// NewParser создает новый парсер ответов модели.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger.Named("NarrativeParser")}
}

// ExtractJSONContent извлекает JSON из блока ```json ... ``` или очищает края.
// Также балансирует фигурные скобки {} в конце строки.
func (p *Parser) ExtractJSONContent(rawText string) string {
	cleaned := strings.TrimSpace(rawText)

	matches := jsonBlockRegex.FindStringSubmatch(cleaned)
	if len(matches) > 1 {
		cleaned = strings.TrimSpace(matches[1])
	} else {
		// Полный блок не найден: чистим некорректную/неполную обертку.
		if strings.HasSuffix(cleaned, "```") {
			cleaned = strings.TrimSuffix(cleaned, "```")
			cleaned = strings.TrimSpace(cleaned)
		}
		if strings.HasPrefix(cleaned, "```") {
			firstNewline := strings.Index(cleaned, "\n")
			if firstNewline != -1 {
				cleaned = strings.TrimSpace(cleaned[firstNewline+1:])
			} else {
				cleaned = strings.TrimPrefix(cleaned, "```")
				cleaned = strings.TrimSpace(cleaned)
			}
		}
	}

	// Модель нередко обрывает или дублирует закрывающие скобки в конце.
	openBraceCount := strings.Count(cleaned, "{")
	closeBraceCount := strings.Count(cleaned, "}")
	diff := openBraceCount - closeBraceCount

	if diff > 0 {
		cleaned += strings.Repeat("}", diff)
		p.logger.Warn("Appended closing braces to JSON string", zap.Int("count", diff))
	} else if diff < 0 {
		excessBraces := -diff
		if strings.HasSuffix(cleaned, strings.Repeat("}", excessBraces)) {
			cleaned = cleaned[:len(cleaned)-excessBraces]
			p.logger.Warn("Removed excess closing braces from end of JSON string", zap.Int("count", excessBraces))
		} else {
			p.logger.Warn("Excess closing braces found, but not all at the end; string left unchanged",
				zap.Int("count", excessBraces))
		}
	}

	return cleaned
}

// ParseNarrative разбирает ответ модели. Второй результат - флаг деградации:
// true означает, что структуру восстановить не удалось и вернулся пустой
// нарратив.
func (p *Parser) ParseNarrative(rawText string) (*model.GeneratedNarrative, bool) {
	cleaned := p.ExtractJSONContent(rawText)
	if cleaned == "" {
		p.logger.Warn("Пустой ответ модели после очистки", zap.Int("rawLength", len(rawText)))
		return model.EmptyNarrative(), true
	}

	var narrative model.GeneratedNarrative
	if err := json.Unmarshal([]byte(cleaned), &narrative); err != nil {
		p.logger.Warn("Не удалось разобрать JSON нарратива",
			zap.Error(err), zap.Int("cleanedLength", len(cleaned)))
		return model.EmptyNarrative(), true
	}

	p.normalize(&narrative)
	return &narrative, false
}

// normalize приводит нарратив к инвариантам: непустые коллекции, сквозная
// нумерация глав, уникальные ID выборов между главами.
func (p *Parser) normalize(n *model.GeneratedNarrative) {
	if n.MainCharacters == nil {
		n.MainCharacters = []model.NarrativeCharacter{}
	}
	if n.Chapters == nil {
		n.Chapters = []model.Chapter{}
	}
	if n.PossibleEndings == nil {
		n.PossibleEndings = []model.Ending{}
	}

	seenChoiceIDs := make(map[string]bool)
	for i := range n.Chapters {
		ch := &n.Chapters[i]
		ch.ChapterNumber = i + 1
		if ch.CluesDiscovered == nil {
			ch.CluesDiscovered = []string{}
		}
		if ch.KeyChoices == nil {
			ch.KeyChoices = []model.KeyChoice{}
		}
		for j := range ch.KeyChoices {
			choice := &ch.KeyChoices[j]
			if choice.Options == nil {
				choice.Options = []model.ChoiceOption{}
			}
			if choice.ChoiceID == "" || seenChoiceIDs[choice.ChoiceID] {
				// Дубликат или пропуск: скоупим ID к главе.
				scoped := fmt.Sprintf("ch%d:%s", ch.ChapterNumber, choice.ChoiceID)
				if choice.ChoiceID == "" || seenChoiceIDs[scoped] {
					scoped = fmt.Sprintf("ch%d:choice%d", ch.ChapterNumber, j+1)
				}
				p.logger.Warn("Choice ID collision resolved",
					zap.String("original", choice.ChoiceID), zap.String("scoped", scoped))
				choice.ChoiceID = scoped
			}
			seenChoiceIDs[choice.ChoiceID] = true
		}
	}
}
