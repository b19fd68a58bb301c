package objstore

import (
	"context"
	"errors"
	"testing"

	"campaignspace/internal/common"
)

func TestMemory_PutGetRoundTrip(t *testing.T) {
	m := NewMemory("http://store.local")
	ctx := context.Background()

	payload := []byte("%PDF-1.4 flyer")
	if err := m.Put(ctx, "campaign-files", "u1/flyer.pdf", payload, "application/pdf", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := m.GetBytes(ctx, "campaign-files", "u1/flyer.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("bytes differ after round trip")
	}
	if ct := m.ContentType("campaign-files", "u1/flyer.pdf"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestMemory_NoOverwriteConflict(t *testing.T) {
	m := NewMemory("http://store.local")
	ctx := context.Background()

	if err := m.Put(ctx, "outputs", "u1/a.pdf", []byte("one"), "", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := m.Put(ctx, "outputs", "u1/a.pdf", []byte("two"), "", false)
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("expected ErrorConflict, got %v", err)
	}

	// overwrite allowed
	if err := m.Put(ctx, "outputs", "u1/a.pdf", []byte("two"), "", true); err != nil {
		t.Fatalf("unexpected error with allowOverwrite: %v", err)
	}
}

func TestMemory_GetMissingKey(t *testing.T) {
	m := NewMemory("http://store.local")

	_, err := m.GetBytes(context.Background(), "campaign-files", "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMemory_ResolveURL(t *testing.T) {
	m := NewMemory("http://store.local/")

	u, err := m.ResolveURL("campaign-files", "u1/flyer.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "http://store.local/campaign-files/u1/flyer.pdf" {
		t.Fatalf("unexpected url %q", u)
	}
}

func TestMemory_ResolveURL_BadKey(t *testing.T) {
	m := NewMemory("http://store.local")

	for _, key := range []string{"", "/leading", "a/../b"} {
		if _, err := m.ResolveURL("campaign-files", key); !errors.Is(err, common.ErrorBadKey) {
			t.Fatalf("expected ErrorBadKey for %q, got %v", key, err)
		}
	}
}
