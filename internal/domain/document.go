package domain

import (
	"github.com/google/uuid"
)

// CategoryUnknown — категория для документов, которые не удалось
// отнести ни к одной из известных категорий. Документы с этой
// категорией попадают на ручную проверку.
const CategoryUnknown = "Unknown Relevance"

// Categories — таксономия категорий документов ипотечного процесса.
// Последняя категория всегда CategoryUnknown.
var Categories = []string{
	"Loan Application",
	"Pre-Approval Letter",
	"Income Verification",
	"Employment Verification",
	"Bank Statement",
	"Credit Report",
	"Property Appraisal",
	"Title Report",
	"Homeowners Insurance",
	"Closing Disclosure",
	"Loan Estimate",
	"Deed/Mortgage Note",
	"HOA Documentation",
	"Gift Letter",
	"Identity Verification",
	"Property Tax Statement",
	"Divorce Decree/Legal Judgment",
	"Bankruptcy Documentation",
	CategoryUnknown,
}

// IsValidCategory проверяет, входит ли категория в таксономию.
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Document — один документ внутри batch.
//
// Document создаётся при добавлении PDF в batch и мутируется
// на месте каждым node executor'ом. Порядок документов в batch
// неизменен на протяжении всего workflow.
type Document struct {
	// ID — уникальный идентификатор документа.
	ID uuid.UUID `json:"id"`

	// FileName — имя исходного PDF-файла.
	FileName string `json:"file_name"`

	// FilePath — путь к исходному PDF-файлу.
	FilePath string `json:"file_path"`

	// ContentHash — SHA-256 хэш сырого содержимого файла.
	// Вычисляется на этапе извлечения, используется как ключ кэша.
	ContentHash string `json:"content_hash,omitempty"`

	// PageCount — количество страниц в документе.
	PageCount int `json:"page_count,omitempty"`

	// RawText — извлечённый текст документа.
	RawText string `json:"raw_text,omitempty"`

	// Summary — краткое содержание, сгенерированное LLM.
	Summary string `json:"summary,omitempty"`

	// KeyEntities — ключевые сущности: имена, организации, даты, суммы.
	KeyEntities []string `json:"key_entities,omitempty"`

	// Category — категория документа из Categories.
	Category string `json:"category,omitempty"`

	// Confidence — уверенность классификации (0..1).
	Confidence float64 `json:"confidence,omitempty"`

	// Reasoning — обоснование выбора категории.
	Reasoning string `json:"reasoning,omitempty"`

	// HumanReviewed — true, если классификация подтверждена человеком.
	HumanReviewed bool `json:"human_reviewed"`

	// OriginalAICategory — категория, присвоенная AI до ручной проверки.
	// Заполняется только при переопределении человеком.
	OriginalAICategory string `json:"original_ai_category,omitempty"`

	// Status — статус обработки документа.
	Status DocumentStatus `json:"status"`

	// Error — текст ошибки, если Status — один из failed-статусов.
	Error string `json:"error,omitempty"`
}

// NewDocument создаёт новый документ для файла.
func NewDocument(filePath, fileName string) *Document {
	return &Document{
		ID:       uuid.New(),
		FilePath: filePath,
		FileName: fileName,
		Status:   DocStatusOK,
	}
}

// NeedsReview возвращает true, если документ требует ручной проверки:
// категория неизвестна либо уверенность ниже порога.
// Уверенность, равная порогу, проверки не требует.
func (d *Document) NeedsReview(threshold float64) bool {
	if d.Status != DocStatusOK {
		return false
	}
	return d.Category == CategoryUnknown || d.Confidence < threshold
}

// MarkExtractionFailed помечает документ как не прошедший извлечение.
func (d *Document) MarkExtractionFailed(err string) {
	d.Status = DocStatusExtractionFailed
	d.Error = err
}

// MarkClassificationFailed помечает документ как не прошедший классификацию.
func (d *Document) MarkClassificationFailed(err string) {
	d.Status = DocStatusClassificationFailed
	d.Error = err
}
