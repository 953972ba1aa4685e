package llm

import (
	"fmt"
	"strings"
)

// PromptVersion входит в тег модели: правка промптов ниже требует
// инкремента версии, иначе кэш отдаст результаты старого промпта.
const PromptVersion = "v1"

// Ограничения на объём текста, передаваемого модели.
const (
	// ExtractionMaxChars — максимум символов документа для суммаризации.
	ExtractionMaxChars = 8000

	// ClassificationSampleChars — максимум символов образца текста
	// для классификации.
	ClassificationSampleChars = 2000
)

const extractionPrompt = `You are a document analyst. Analyze the following document and respond with a JSON object containing exactly these fields:
- "summary": a concise 2-3 sentence summary of the document
- "key_entities": a list of key entities (names, organizations, dates, amounts, important terms)

Respond with JSON only, no extra text.

Document: %s

Text:
%s`

const classificationPrompt = `You are a mortgage document classifier. Classify the document into exactly one of these categories:
%s

Respond with a JSON object containing exactly these fields:
- "category": the chosen category, verbatim from the list
- "confidence": your confidence between 0.0 and 1.0
- "reasoning": a brief explanation of the choice

If the document does not fit any category, use "Unknown Relevance".
Respond with JSON only, no extra text.

Document: %s
Summary: %s
Key entities: %s

Sample text:
%s`

// ExtractionPrompt строит промпт суммаризации документа.
func ExtractionPrompt(fileName, text string) string {
	return fmt.Sprintf(extractionPrompt, fileName, Truncate(text, ExtractionMaxChars))
}

// ClassificationPrompt строит промпт классификации документа.
func ClassificationPrompt(categories []string, fileName, summary string, entities []string, text string) string {
	return fmt.Sprintf(classificationPrompt,
		"- "+strings.Join(categories, "\n- "),
		fileName,
		summary,
		strings.Join(entities, ", "),
		Truncate(text, ClassificationSampleChars),
	)
}

// Truncate обрезает текст до maxChars с многоточием.
func Truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "..."
}
