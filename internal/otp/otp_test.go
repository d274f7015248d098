package otp

import (
	"context"
	"testing"
	"time"
)

func TestGenerateSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("generate error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}

func TestMemoryStoreConsume(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10 * time.Minute)
	if err := store.Put(ctx, "a@example.com", "123456"); err != nil {
		t.Fatalf("put error: %v", err)
	}

	// Wrong code leaves the entry intact.
	ok, err := store.Consume(ctx, "a@example.com", "000000")
	if err != nil || ok {
		t.Fatalf("expected wrong code to fail, ok=%v err=%v", ok, err)
	}

	ok, err = store.Consume(ctx, "a@example.com", "123456")
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}

	// Consumed on success.
	ok, _ = store.Consume(ctx, "a@example.com", "123456")
	if ok {
		t.Fatalf("expected code to be consumed")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(-time.Second)
	if err := store.Put(ctx, "a@example.com", "123456"); err != nil {
		t.Fatalf("put error: %v", err)
	}
	ok, err := store.Consume(ctx, "a@example.com", "123456")
	if err != nil || ok {
		t.Fatalf("expected expired code to fail, ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreUnknownEmail(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ok, err := store.Consume(context.Background(), "nobody@example.com", "123456")
	if err != nil || ok {
		t.Fatalf("expected unknown email to fail, ok=%v err=%v", ok, err)
	}
}
