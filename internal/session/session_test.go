package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	id, err := store.Create(ctx, userID, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("id vazio")
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != userID {
		t.Fatalf("esperava %s, veio %s", userID, got)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperava ErrNotFound, veio %v", err)
	}

	// logout duas vezes não é erro
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete idempotente: %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Create(ctx, uuid.New(), -time.Second)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("sessão expirada deveria sumir, veio %v", err)
	}
}

func TestNewIDisUnique(t *testing.T) {
	a, err := NewID()
	if err != nil {
		t.Fatalf("newid: %v", err)
	}
	b, err := NewID()
	if err != nil {
		t.Fatalf("newid: %v", err)
	}
	if a == b {
		t.Fatal("dois ids iguais")
	}
}
