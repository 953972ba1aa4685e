package domain

import "errors"

// Ошибки валидации решений.
var (
	// ErrInvalidDecision — решение не прошло валидацию.
	ErrInvalidDecision = errors.New("invalid review decision")

	// ErrUnknownCategory — категория отсутствует в таксономии.
	ErrUnknownCategory = errors.New("unknown category")
)

// DecisionKind — тип решения человека по документу.
type DecisionKind string

const (
	// DecisionReclassify — человек выбрал конкретную категорию.
	DecisionReclassify DecisionKind = "confirm_category"

	// DecisionConfirmUnknown — человек подтвердил, что документ
	// не относится к процессу (категория остаётся CategoryUnknown).
	DecisionConfirmUnknown DecisionKind = "confirm_unknown"

	// DecisionSkip — оставить классификацию AI без изменений.
	DecisionSkip DecisionKind = "skip"
)

// ReviewDecision — одно решение человека по одному документу.
type ReviewDecision struct {
	// Kind — тип решения.
	Kind DecisionKind `json:"kind"`

	// Category — выбранная категория (только для DecisionReclassify).
	Category string `json:"category,omitempty"`
}

// Validate проверяет корректность решения.
func (d ReviewDecision) Validate() error {
	switch d.Kind {
	case DecisionReclassify:
		if d.Category == "" || d.Category == CategoryUnknown {
			return ErrInvalidDecision
		}
		if !IsValidCategory(d.Category) {
			return ErrUnknownCategory
		}
		return nil
	case DecisionConfirmUnknown, DecisionSkip:
		return nil
	default:
		return ErrInvalidDecision
	}
}

// Apply применяет решение к документу.
//
// Решение должно быть предварительно провалидировано. При переопределении
// категории фиксируется исходная категория AI и выставляется HumanReviewed;
// skip оставляет документ без изменений.
func (d ReviewDecision) Apply(doc *Document) {
	switch d.Kind {
	case DecisionReclassify:
		if doc.OriginalAICategory == "" {
			doc.OriginalAICategory = doc.Category
		}
		doc.Category = d.Category
		doc.Confidence = 1.0
		doc.Reasoning = "Manually reclassified by human reviewer"
		doc.HumanReviewed = true

	case DecisionConfirmUnknown:
		if doc.OriginalAICategory == "" {
			doc.OriginalAICategory = doc.Category
		}
		doc.Category = CategoryUnknown
		doc.Confidence = 1.0
		doc.Reasoning = "Confirmed as irrelevant by human reviewer"
		doc.HumanReviewed = true

	case DecisionSkip:
		// Документ остаётся как есть, HumanReviewed не выставляется.
	}
}
