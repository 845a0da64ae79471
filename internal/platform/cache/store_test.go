package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), Key("leaderboard", "g1", "s1"), loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiryAndPrefixInvalidation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	store.Set(ctx, Key("leaderboard", "g1", "s1"), 1)
	store.Set(ctx, Key("leaderboard", "g1", "s2"), 2)
	store.Set(ctx, Key("leaderboard", "g2", "s1"), 3)

	if removed := store.DeletePrefix(ctx, Key("leaderboard", "g1")+":"); removed != 2 {
		t.Fatalf("unexpected removed count: %d", removed)
	}
	if _, ok := store.Get(ctx, Key("leaderboard", "g2", "s1")); !ok {
		t.Fatalf("other guild entry should survive")
	}

	now = now.Add(time.Minute)
	if _, ok := store.Get(ctx, Key("leaderboard", "g2", "s1")); ok {
		t.Fatalf("entry should expire after ttl")
	}
	if store.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", store.Len())
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("db down")
		}
		return "ok", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err == nil {
		t.Fatalf("expected loader error")
	}
	if v, err := store.GetOrLoad(context.Background(), "k", loader); err != nil || v != "ok" {
		t.Fatalf("second load: v=%v err=%v", v, err)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
