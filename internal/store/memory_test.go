package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_Register(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	meta, err := s.Register(ctx, RegisterParams{
		OwnerID:   "user-1",
		SourceRef: "sources/orders.csv",
		FileName:  "orders.csv",
		RowCount:  42,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if meta.ID == "" {
		t.Error("Register did not assign an ID")
	}
	if meta.OwnerID != "user-1" {
		t.Errorf("OwnerID = %q, want %q", meta.OwnerID, "user-1")
	}
	if meta.SourceRef != "sources/orders.csv" {
		t.Errorf("SourceRef = %q, want %q", meta.SourceRef, "sources/orders.csv")
	}
	if meta.Status != StatusAwaitingFix {
		t.Errorf("Status = %q, want %q", meta.Status, StatusAwaitingFix)
	}
	if meta.RowCount != 42 {
		t.Errorf("RowCount = %d, want 42", meta.RowCount)
	}
	if meta.CreatedAt.IsZero() || meta.UpdatedAt.IsZero() {
		t.Error("timestamps were not set")
	}

	// Registrations get distinct IDs
	second, err := s.Register(ctx, RegisterParams{OwnerID: "user-1"})
	if err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if second.ID == meta.ID {
		t.Error("two registrations share an ID")
	}
}

func TestMemoryStore_Locate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	meta, err := s.Register(ctx, RegisterParams{OwnerID: "user-1", FileName: "a.csv"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := s.Locate(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got == nil {
		t.Fatal("Locate returned nil for a registered session")
	}
	if got.ID != meta.ID || got.FileName != "a.csv" {
		t.Errorf("Locate = %+v, want registered session", got)
	}

	// Absence is not an error
	got, err = s.Locate(ctx, "missing-id")
	if err != nil {
		t.Errorf("Locate unknown id error = %v, want nil", err)
	}
	if got != nil {
		t.Errorf("Locate unknown id = %+v, want nil", got)
	}
}

func TestMemoryStore_LocateReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	meta, _ := s.Register(ctx, RegisterParams{OwnerID: "user-1"})

	first, _ := s.Locate(ctx, meta.ID)
	first.Status = "tampered"

	second, _ := s.Locate(ctx, meta.ID)
	if second.Status != StatusAwaitingFix {
		t.Errorf("stored status = %q, caller mutation leaked into store", second.Status)
	}
}

func TestMemoryStore_UpdateStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	meta, _ := s.Register(ctx, RegisterParams{OwnerID: "user-1"})

	if err := s.UpdateStatus(ctx, meta.ID, StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := s.Locate(ctx, meta.ID)
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StatusCompleted)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("UpdatedAt was not advanced")
	}

	// Unknown IDs are ignored, not errors
	if err := s.UpdateStatus(ctx, "missing-id", StatusCompleted); err != nil {
		t.Errorf("UpdateStatus unknown id error = %v, want nil", err)
	}
}

func TestMemoryStore_FixEvents(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	meta, _ := s.Register(ctx, RegisterParams{OwnerID: "user-1"})

	events := []FixEvent{
		{SessionID: meta.ID, RecordIndex: 1, Field: "price", NewValue: "12", Source: FixSourceSingle},
		{SessionID: meta.ID, RecordIndex: 2, Field: "name", NewValue: "Cable", Source: FixSourceSingle},
		{SessionID: meta.ID, RecordIndex: 4, Field: "stock", NewValue: "0", Source: FixSourceBulk},
	}
	for _, ev := range events {
		if err := s.RecordFixEvent(ctx, ev); err != nil {
			t.Fatalf("RecordFixEvent failed: %v", err)
		}
	}

	got, err := s.ListFixEvents(ctx, meta.ID)
	if err != nil {
		t.Fatalf("ListFixEvents failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}

	// Insertion order is preserved
	for i, want := range events {
		if got[i].Field != want.Field || got[i].RecordIndex != want.RecordIndex {
			t.Errorf("event %d = %s on record %d, want %s on record %d",
				i, got[i].Field, got[i].RecordIndex, want.Field, want.RecordIndex)
		}
	}

	// Missing metadata is filled in
	for i, ev := range got {
		if ev.ID == "" {
			t.Errorf("event %d has empty ID", i)
		}
		if ev.CreatedAt.IsZero() {
			t.Errorf("event %d has zero CreatedAt", i)
		}
	}

	// Other sessions see nothing
	other, err := s.ListFixEvents(ctx, "other-session")
	if err != nil {
		t.Fatalf("ListFixEvents failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d events for unknown session, want 0", len(other))
	}
}

func TestMemoryStore_ListFixEventsReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	meta, _ := s.Register(ctx, RegisterParams{OwnerID: "user-1"})
	s.RecordFixEvent(ctx, FixEvent{SessionID: meta.ID, Field: "price", NewValue: "12"})

	first, _ := s.ListFixEvents(ctx, meta.ID)
	first[0].Field = "tampered"

	second, _ := s.ListFixEvents(ctx, meta.ID)
	if second[0].Field != "price" {
		t.Errorf("stored field = %q, caller mutation leaked into store", second[0].Field)
	}
}

func TestMemoryStore_Close(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Open error = %v, want ErrUnknownDriver", err)
	}
}
