package kv

import (
	"context"
	"errors"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if _, err := s.Get(ctx, "pequeno_estilo_products"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	payload := []byte(`[{"id":"1"}]`)
	if err := s.Set(ctx, "pequeno_estilo_products", payload); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh handle over the same directory sees the slot.
	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen file store: %v", err)
	}
	got, err := reopened.Get(ctx, "pequeno_estilo_products")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("value = %s, want %s", got, payload)
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	ctx := context.Background()

	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Set(ctx, "../escape/slot", []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := s.Get(ctx, "../escape/slot"); err != nil {
		t.Fatalf("get: %v", err)
	}
}
