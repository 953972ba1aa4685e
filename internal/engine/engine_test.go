package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/checkpoint"
	"github.com/shaiso/Conveyor/internal/domain"
)

// fakeExecutor — исполнитель узла для тестов: считает вызовы и
// применяет fn к состоянию.
type fakeExecutor struct {
	name  string
	calls int
	err   error
	fn    func(state *domain.WorkflowState)
}

func (f *fakeExecutor) Name() string { return f.name }

func (f *fakeExecutor) Execute(_ context.Context, state *domain.WorkflowState) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.fn != nil {
		f.fn(state)
	}
	return nil
}

type classification struct {
	category   string
	confidence float64
}

// classifyAs возвращает fn, присваивающий документам категории по имени файла.
func classifyAs(results map[string]classification) func(*domain.WorkflowState) {
	return func(state *domain.WorkflowState) {
		for _, doc := range state.Documents {
			if r, ok := results[doc.FileName]; ok {
				doc.Category = r.category
				doc.Confidence = r.confidence
			}
		}
	}
}

type testEnv struct {
	engine     *Engine
	store      *checkpoint.MemoryStore
	extractor  *fakeExecutor
	classifier *fakeExecutor
	reporter   *fakeExecutor
}

func newTestEnv(classify func(*domain.WorkflowState)) *testEnv {
	store := checkpoint.NewMemoryStore()
	extractor := &fakeExecutor{name: "extract"}
	classifier := &fakeExecutor{name: "classify", fn: classify}
	reporter := &fakeExecutor{name: "report", fn: func(s *domain.WorkflowState) {
		s.ReportPath = "/tmp/report.json"
	}}

	eng := New(Config{
		Extractor:   extractor,
		Classifier:  classifier,
		Reporter:    reporter,
		Checkpoints: store,
		Threshold:   0.60,
	})

	return &testEnv{
		engine:     eng,
		store:      store,
		extractor:  extractor,
		classifier: classifier,
		reporter:   reporter,
	}
}

func newBatch(threadID string, names ...string) *domain.WorkflowState {
	docs := make([]*domain.Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, domain.NewDocument("/in/"+name, name))
	}
	return domain.NewWorkflowState(threadID, docs)
}

func TestRunToCompletionWithoutReview(t *testing.T) {
	env := newTestEnv(classifyAs(map[string]classification{
		"a.pdf": {"Bank Statement", 0.95},
		"b.pdf": {"Credit Report", 0.88},
	}))
	state := newBatch("t1", "a.pdf", "b.pdf")

	if err := env.engine.Run(context.Background(), state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if state.Node != domain.NodeDone {
		t.Errorf("node = %s, want %s", state.Node, domain.NodeDone)
	}
	if state.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want %s", state.Status, domain.RunStatusCompleted)
	}
	if len(state.PendingReview) != 0 {
		t.Errorf("pending review not empty: %v", state.PendingReview)
	}
	if state.ReportPath == "" {
		t.Error("report path not set")
	}
	if env.extractor.calls != 1 || env.classifier.calls != 1 || env.reporter.calls != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1",
			env.extractor.calls, env.classifier.calls, env.reporter.calls)
	}
}

func TestSuspendsForLowConfidenceAndUnknown(t *testing.T) {
	env := newTestEnv(classifyAs(map[string]classification{
		"a.pdf": {"Bank Statement", 0.95},
		"b.pdf": {domain.CategoryUnknown, 0.40},
		"c.pdf": {"Credit Report", 0.88},
	}))
	state := newBatch("t1", "a.pdf", "b.pdf", "c.pdf")

	if err := env.engine.Run(context.Background(), state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if state.Status != domain.RunStatusAwaitingHumanInput {
		t.Fatalf("status = %s, want %s", state.Status, domain.RunStatusAwaitingHumanInput)
	}
	if len(state.PendingReview) != 1 {
		t.Fatalf("pending review = %v, want exactly one entry", state.PendingReview)
	}
	if want := state.DocumentByName("b.pdf").ID; state.PendingReview[0] != want {
		t.Errorf("pending review = %v, want [%s]", state.PendingReview, want)
	}
	if env.reporter.calls != 0 {
		t.Errorf("reporter called %d times before review resolved", env.reporter.calls)
	}
}

func TestConfidenceEqualToThresholdPasses(t *testing.T) {
	env := newTestEnv(classifyAs(map[string]classification{
		"a.pdf": {"Bank Statement", 0.60},
	}))
	state := newBatch("t1", "a.pdf")

	if err := env.engine.Run(context.Background(), state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if state.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want %s: confidence equal to threshold must pass",
			state.Status, domain.RunStatusCompleted)
	}
}

func TestPendingReviewPreservesDocumentOrder(t *testing.T) {
	env := newTestEnv(classifyAs(map[string]classification{
		"a.pdf": {"Bank Statement", 0.30},
		"b.pdf": {"Credit Report", 0.95},
		"c.pdf": {domain.CategoryUnknown, 0.50},
		"d.pdf": {"Loan Application", 0.10},
	}))
	state := newBatch("t1", "a.pdf", "b.pdf", "c.pdf", "d.pdf")

	if err := env.engine.Run(context.Background(), state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []uuid.UUID{
		state.DocumentByName("a.pdf").ID,
		state.DocumentByName("c.pdf").ID,
		state.DocumentByName("d.pdf").ID,
	}
	if len(state.PendingReview) != len(want) {
		t.Fatalf("pending review has %d entries, want %d", len(state.PendingReview), len(want))
	}
	for i, id := range want {
		if state.PendingReview[i] != id {
			t.Errorf("pending review[%d] = %s, want %s", i, state.PendingReview[i], id)
		}
	}
}

func TestApplyDecisionsResumesToCompletion(t *testing.T) {
	env := newTestEnv(classifyAs(map[string]classification{
		"a.pdf": {"Bank Statement", 0.95},
		"b.pdf": {domain.CategoryUnknown, 0.40},
		"c.pdf": {"Credit Report", 0.88},
	}))
	state := newBatch("t1", "a.pdf", "b.pdf", "c.pdf")
	ctx := context.Background()

	if err := env.engine.Run(ctx, state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if state.Status != domain.RunStatusAwaitingHumanInput {
		t.Fatalf("status = %s, want %s", state.Status, domain.RunStatusAwaitingHumanInput)
	}

	doc := state.DocumentByName("b.pdf")
	decisions := map[uuid.UUID]domain.ReviewDecision{
		doc.ID: {Kind: domain.DecisionReclassify, Category: "Bank Statement"},
	}

	rejected, err := env.engine.ApplyDecisions(ctx, state, decisions)
	if err != nil {
		t.Fatalf("ApplyDecisions failed: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejected decisions: %v", rejected)
	}

	if state.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want %s", state.Status, domain.RunStatusCompleted)
	}
	if doc.Category != "Bank Statement" {
		t.Errorf("category = %q, want %q", doc.Category, "Bank Statement")
	}
	if doc.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", doc.Confidence)
	}
	if !doc.HumanReviewed {
		t.Error("HumanReviewed not set")
	}
	if doc.OriginalAICategory != domain.CategoryUnknown {
		t.Errorf("original AI category = %q, want %q", doc.OriginalAICategory, domain.CategoryUnknown)
	}

	// Узлы до проверки не выполняются повторно.
	if env.extractor.calls != 1 || env.classifier.calls != 1 {
		t.Errorf("extract/classify calls = %d/%d, want 1/1",
			env.extractor.calls, env.classifier.calls)
	}
	if env.reporter.calls != 1 {
		t.Errorf("reporter calls = %d, want 1", env.reporter.calls)
	}
}

func TestApplyDecisionsRejectsInvalidAndKeepsPending(t *testing.T) {
	env := newTestEnv(classifyAs(map[string]classification{
		"a.pdf": {domain.CategoryUnknown, 0.40},
		"b.pdf": {domain.CategoryUnknown, 0.30},
	}))
	state := newBatch("t1", "a.pdf", "b.pdf")
	ctx := context.Background()

	if err := env.engine.Run(ctx, state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	docA := state.DocumentByName("a.pdf")
	docB := state.DocumentByName("b.pdf")
	decisions := map[uuid.UUID]domain.ReviewDecision{
		docA.ID: {Kind: domain.DecisionConfirmUnknown},
		docB.ID: {Kind: domain.DecisionReclassify, Category: "Not A Real Category"},
	}

	rejected, err := env.engine.ApplyDecisions(ctx, state, decisions)
	if err != nil {
		t.Fatalf("ApplyDecisions failed: %v", err)
	}
	if len(rejected) != 1 {
		t.Fatalf("rejected = %v, want exactly one", rejected)
	}

	// Невалидное решение не потребляет элемент pending_review.
	if state.Status != domain.RunStatusAwaitingHumanInput {
		t.Errorf("status = %s, want %s", state.Status, domain.RunStatusAwaitingHumanInput)
	}
	if len(state.PendingReview) != 1 || state.PendingReview[0] != docB.ID {
		t.Errorf("pending review = %v, want [%s]", state.PendingReview, docB.ID)
	}
	if !docA.HumanReviewed {
		t.Error("valid decision was not applied")
	}
}

func TestApplyDecisionsWhenNotAwaiting(t *testing.T) {
	env := newTestEnv(classifyAs(map[string]classification{
		"a.pdf": {"Bank Statement", 0.95},
	}))
	state := newBatch("t1", "a.pdf")
	ctx := context.Background()

	if err := env.engine.Run(ctx, state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	_, err := env.engine.ApplyDecisions(ctx, state, nil)
	if !errors.Is(err, ErrNotAwaitingInput) {
		t.Errorf("err = %v, want ErrNotAwaitingInput", err)
	}
}

func TestResumeFromCheckpointSkipsCompletedNodes(t *testing.T) {
	ctx := context.Background()

	// Первый запуск падает на классификации уже после того, как
	// extraction-барьер пройден и checkpoint записан.
	env := newTestEnv(nil)
	env.classifier.err = errors.New("llm unavailable")
	state := newBatch("t1", "a.pdf", "b.pdf")

	if err := env.engine.Run(ctx, state); err == nil {
		t.Fatal("Run succeeded, want node failure")
	}
	if env.extractor.calls != 1 {
		t.Fatalf("extractor calls = %d, want 1", env.extractor.calls)
	}

	// FAILED не перезаписывает последний успешный checkpoint.
	cp, err := env.store.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp.State.Node != domain.NodeClassifying {
		t.Fatalf("checkpointed node = %s, want %s", cp.State.Node, domain.NodeClassifying)
	}

	// Возобновление с восстановленной классификацией: extraction
	// не выполняется повторно.
	env.classifier.err = nil
	env.classifier.fn = classifyAs(map[string]classification{
		"a.pdf": {"Bank Statement", 0.95},
		"b.pdf": {"Credit Report", 0.88},
	})

	resumed := cp.State
	if err := env.engine.Run(ctx, resumed); err != nil {
		t.Fatalf("resumed Run failed: %v", err)
	}

	if env.extractor.calls != 1 {
		t.Errorf("extractor calls after resume = %d, want 1", env.extractor.calls)
	}
	if resumed.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want %s", resumed.Status, domain.RunStatusCompleted)
	}
}

func TestCheckpointSequenceGrowsPerBarrier(t *testing.T) {
	env := newTestEnv(classifyAs(map[string]classification{
		"a.pdf": {"Bank Statement", 0.95},
	}))
	state := newBatch("t1", "a.pdf")
	ctx := context.Background()

	if err := env.engine.Run(ctx, state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	cp, err := env.store.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// Барьеры: extract, classify, decide, done.
	if cp.Sequence != 4 {
		t.Errorf("sequence = %d, want 4", cp.Sequence)
	}
	if cp.State.Node != domain.NodeDone {
		t.Errorf("checkpointed node = %s, want %s", cp.State.Node, domain.NodeDone)
	}
}

func TestThresholdFromEnv(t *testing.T) {
	t.Setenv("REVIEW_CONFIDENCE_THRESHOLD", "0.85")
	if got := thresholdFromEnv(); got != 0.85 {
		t.Errorf("threshold = %v, want 0.85", got)
	}

	t.Setenv("REVIEW_CONFIDENCE_THRESHOLD", "nonsense")
	if got := thresholdFromEnv(); got != defaultReviewThreshold {
		t.Errorf("threshold = %v, want default %v", got, defaultReviewThreshold)
	}
}
