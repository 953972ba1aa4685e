package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

func TestMemoryStore_LoadMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Load(context.Background(), "no-such-thread")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	docs := []*domain.Document{
		domain.NewDocument("/tmp/a.pdf", "a.pdf"),
		domain.NewDocument("/tmp/b.pdf", "b.pdf"),
	}
	state := domain.NewWorkflowState("thread-1", docs)
	state.Node = domain.NodeClassifying

	if err := s.Save(ctx, "thread-1", state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cp, err := s.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", cp.Sequence)
	}
	if cp.State.Node != domain.NodeClassifying {
		t.Errorf("expected node CLASSIFYING, got %s", cp.State.Node)
	}
	if len(cp.State.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(cp.State.Documents))
	}

	// Порядок документов сохраняется
	if cp.State.Documents[0].FileName != "a.pdf" || cp.State.Documents[1].FileName != "b.pdf" {
		t.Error("document order not preserved")
	}
}

func TestMemoryStore_SequenceIncreases(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	state := domain.NewWorkflowState("thread-1", nil)

	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, "thread-1", state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	cp, err := s.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.Sequence != 3 {
		t.Errorf("expected sequence 3, got %d", cp.Sequence)
	}
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	state := domain.NewWorkflowState("thread-1", []*domain.Document{
		domain.NewDocument("/tmp/a.pdf", "a.pdf"),
	})
	_ = s.Save(ctx, "thread-1", state)

	cp1, _ := s.Load(ctx, "thread-1")
	cp1.State.Documents[0].Category = "mutated"

	cp2, _ := s.Load(ctx, "thread-1")
	if cp2.State.Documents[0].Category == "mutated" {
		t.Error("Load must return an independent copy of the state")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Save(ctx, "thread-1", domain.NewWorkflowState("thread-1", nil))
	if err := s.Delete(ctx, "thread-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Load(ctx, "thread-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Повторный delete не ошибка
	if err := s.Delete(ctx, "thread-1"); err != nil {
		t.Errorf("unexpected error on repeated delete: %v", err)
	}
}
