package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("fresh id should not be revoked: %v %v", revoked, err)
	}

	if err := store.Revoke(ctx, "jti-1", exp); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}

	// Idempotent.
	if err := store.Revoke(ctx, "jti-1", exp.Add(time.Hour)); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one entry, got %d", store.Len())
	}

	if err := store.Revoke(ctx, "  ", exp); err == nil {
		t.Fatal("expected error for empty token id")
	}
}

func TestMemoryRevocationStorePurge(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = store.Revoke(ctx, "past", now.Add(-time.Minute))
	_ = store.Revoke(ctx, "exact", now)
	_ = store.Revoke(ctx, "future", now.Add(time.Minute))

	removed, err := store.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 purged, got %d", removed)
	}
	if revoked, _ := store.IsRevoked(ctx, "future"); !revoked {
		t.Fatal("unexpired entry must survive purge")
	}
}

func TestMemoryRevocationStoreConcurrent(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		id := fmt.Sprintf("jti-%d", i)
		go func() {
			defer wg.Done()
			_ = store.Revoke(ctx, id, exp)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.IsRevoked(ctx, id)
		}()
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		id := fmt.Sprintf("jti-%d", i)
		if revoked, _ := store.IsRevoked(ctx, id); !revoked {
			t.Fatalf("revocation of %s not visible after Revoke returned", id)
		}
	}
}
