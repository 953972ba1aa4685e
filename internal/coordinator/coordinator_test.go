package coordinator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/Conveyor/internal/checkpoint"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
)

type stubExecutor struct {
	name  string
	calls int
	fn    func(state *domain.WorkflowState)
}

func (s *stubExecutor) Name() string { return s.name }

func (s *stubExecutor) Execute(_ context.Context, state *domain.WorkflowState) error {
	s.calls++
	if s.fn != nil {
		s.fn(state)
	}
	return nil
}

// classifyAll присваивает всем документам одну категорию и уверенность.
func classifyAll(category string, confidence float64) func(*domain.WorkflowState) {
	return func(state *domain.WorkflowState) {
		for _, doc := range state.Documents {
			doc.Category = category
			doc.Confidence = confidence
		}
	}
}

func newTestCoordinator(classify func(*domain.WorkflowState)) (*Coordinator, *checkpoint.MemoryStore, *stubExecutor) {
	store := checkpoint.NewMemoryStore()
	extractor := &stubExecutor{name: "extract"}
	eng := engine.New(engine.Config{
		Extractor:   extractor,
		Classifier:  &stubExecutor{name: "classify", fn: classify},
		Reporter:    &stubExecutor{name: "report"},
		Checkpoints: store,
		Threshold:   0.60,
	})
	return New(eng, store, nil), store, extractor
}

// writeInputDir создаёт каталог с файлами заданных имён.
func writeInputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunDiscoversSortedPDFs(t *testing.T) {
	coord, _, _ := newTestCoordinator(classifyAll("Bank Statement", 0.95))
	dir := writeInputDir(t, "b.pdf", "a.pdf", "notes.txt", "c.PDF")

	state, err := coord.Run(context.Background(), RunParams{ThreadID: "t1", InputDir: dir})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"a.pdf", "b.pdf", "c.PDF"}
	if len(state.Documents) != len(want) {
		t.Fatalf("got %d documents, want %d", len(state.Documents), len(want))
	}
	for i, name := range want {
		if state.Documents[i].FileName != name {
			t.Errorf("document[%d] = %s, want %s", i, state.Documents[i].FileName, name)
		}
	}
	if state.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want %s", state.Status, domain.RunStatusCompleted)
	}
}

func TestRunHonorsLimit(t *testing.T) {
	coord, _, _ := newTestCoordinator(classifyAll("Bank Statement", 0.95))
	dir := writeInputDir(t, "a.pdf", "b.pdf", "c.pdf")

	state, err := coord.Run(context.Background(), RunParams{ThreadID: "t1", InputDir: dir, Limit: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(state.Documents) != 2 {
		t.Errorf("got %d documents, want 2", len(state.Documents))
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	coord, _, _ := newTestCoordinator(nil)
	dir := writeInputDir(t, "notes.txt")

	_, err := coord.Run(context.Background(), RunParams{ThreadID: "t1", InputDir: dir})
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("err = %v, want ErrNoDocuments", err)
	}
}

func TestRunGeneratesThreadID(t *testing.T) {
	coord, _, _ := newTestCoordinator(classifyAll("Bank Statement", 0.95))
	dir := writeInputDir(t, "a.pdf")

	state, err := coord.Run(context.Background(), RunParams{InputDir: dir})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if state.ThreadID == "" {
		t.Error("thread ID not generated")
	}
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	coord, store, extractor := newTestCoordinator(classifyAll("Bank Statement", 0.95))
	ctx := context.Background()

	// Состояние после extraction-барьера, записанное прошлой сессией.
	docs := []*domain.Document{domain.NewDocument("/in/a.pdf", "a.pdf")}
	prev := domain.NewWorkflowState("t1", docs)
	prev.Node = domain.NodeClassifying
	if err := store.Save(ctx, "t1", prev); err != nil {
		t.Fatal(err)
	}

	// InputDir игнорируется при возобновлении: batch фиксирован.
	state, err := coord.Run(ctx, RunParams{ThreadID: "t1", InputDir: "/does/not/exist"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if extractor.calls != 0 {
		t.Errorf("extractor calls = %d, want 0 on resume", extractor.calls)
	}
	if state.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want %s", state.Status, domain.RunStatusCompleted)
	}
	if len(state.Documents) != 1 || state.Documents[0].FileName != "a.pdf" {
		t.Errorf("resumed batch = %v, want original single document", state.Documents)
	}
}

func TestRunFinishedThreadIsNoop(t *testing.T) {
	coord, store, extractor := newTestCoordinator(nil)
	ctx := context.Background()

	done := domain.NewWorkflowState("t1", nil)
	done.MarkCompleted()
	if err := store.Save(ctx, "t1", done); err != nil {
		t.Fatal(err)
	}

	state, err := coord.Run(ctx, RunParams{ThreadID: "t1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if state.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want %s", state.Status, domain.RunStatusCompleted)
	}
	if extractor.calls != 0 {
		t.Errorf("extractor calls = %d, want 0", extractor.calls)
	}
}

func TestStatusUnknownThread(t *testing.T) {
	coord, _, _ := newTestCoordinator(nil)

	_, err := coord.Status(context.Background(), "missing")
	if !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("err = %v, want ErrThreadNotFound", err)
	}
}

func TestApplyDecisionsByFileName(t *testing.T) {
	coord, _, _ := newTestCoordinator(classifyAll(domain.CategoryUnknown, 0.40))
	dir := writeInputDir(t, "a.pdf")
	ctx := context.Background()

	state, err := coord.Run(ctx, RunParams{ThreadID: "t1", InputDir: dir})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if state.Status != domain.RunStatusAwaitingHumanInput {
		t.Fatalf("status = %s, want %s", state.Status, domain.RunStatusAwaitingHumanInput)
	}

	decisions := map[string]domain.ReviewDecision{
		"a.pdf":       {Kind: domain.DecisionReclassify, Category: "Gift Letter"},
		"missing.pdf": {Kind: domain.DecisionSkip},
	}
	state, rejected, err := coord.ApplyDecisions(ctx, "t1", decisions)
	if err != nil {
		t.Fatalf("ApplyDecisions failed: %v", err)
	}

	if len(rejected) != 1 || !errors.Is(rejected[0], ErrUnknownDocument) {
		t.Errorf("rejected = %v, want one ErrUnknownDocument", rejected)
	}
	if state.Status != domain.RunStatusCompleted {
		t.Errorf("status = %s, want %s", state.Status, domain.RunStatusCompleted)
	}
	if doc := state.DocumentByName("a.pdf"); doc.Category != "Gift Letter" || !doc.HumanReviewed {
		t.Errorf("decision not applied: category=%q reviewed=%v", doc.Category, doc.HumanReviewed)
	}
}

func TestResetForgetsThread(t *testing.T) {
	coord, store, _ := newTestCoordinator(nil)
	ctx := context.Background()

	if err := store.Save(ctx, "t1", domain.NewWorkflowState("t1", nil)); err != nil {
		t.Fatal(err)
	}

	if err := coord.Reset(ctx, "t1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := coord.Status(ctx, "t1"); !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("err = %v, want ErrThreadNotFound after reset", err)
	}
}
