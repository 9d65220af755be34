package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeBackend is a scripted Backend that counts Generate calls.
type fakeBackend struct {
	calls int
	resp  *Response
	err   error
}

func (b *fakeBackend) Generate(_ context.Context, req *Request) (*Response, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	resp := *b.resp
	resp.Model = req.Model
	return &resp, nil
}

func TestClient_CacheHitSkipsBackend(t *testing.T) {
	backend := &fakeBackend{resp: &Response{Content: "fresh reply"}}
	cache := newTestCache(t, time.Hour)
	client := NewClient(backend, cache, zerolog.Nop())

	first, err := client.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("First Complete failed: %v", err)
	}
	if first.Cached {
		t.Error("Expected first response to be uncached")
	}
	if backend.calls != 1 {
		t.Fatalf("Expected 1 backend call, got %d", backend.calls)
	}

	second, err := client.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Second Complete failed: %v", err)
	}
	if !second.Cached {
		t.Error("Expected second response to come from cache")
	}
	if second.Content != "fresh reply" {
		t.Errorf("Expected cached content 'fresh reply', got %q", second.Content)
	}
	if backend.calls != 1 {
		t.Errorf("Expected cache hit to skip the backend, got %d calls", backend.calls)
	}
}

func TestClient_DifferentRequestsMiss(t *testing.T) {
	backend := &fakeBackend{resp: &Response{Content: "reply"}}
	client := NewClient(backend, newTestCache(t, time.Hour), zerolog.Nop())

	if _, err := client.Complete(context.Background(), testRequest()); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	other := testRequest()
	other.Messages[0].Content = "goodbye"
	if _, err := client.Complete(context.Background(), other); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if backend.calls != 2 {
		t.Errorf("Expected 2 backend calls for distinct requests, got %d", backend.calls)
	}
}

func TestClient_NilCacheDisablesCaching(t *testing.T) {
	backend := &fakeBackend{resp: &Response{Content: "reply"}}
	client := NewClient(backend, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		resp, err := client.Complete(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("Complete %d failed: %v", i, err)
		}
		if resp.Cached {
			t.Error("Expected no cached responses with caching disabled")
		}
	}
	if backend.calls != 2 {
		t.Errorf("Expected 2 backend calls with caching disabled, got %d", backend.calls)
	}
}

func TestClient_BackendErrorNotCached(t *testing.T) {
	backendErr := NewProviderError("upstream broke", errors.New("boom"))
	backend := &fakeBackend{err: backendErr}
	cache := newTestCache(t, time.Hour)
	client := NewClient(backend, cache, zerolog.Nop())

	if _, err := client.Complete(context.Background(), testRequest()); !errors.Is(err, backendErr) {
		t.Fatalf("Expected backend error to propagate unchanged, got %v", err)
	}
	if _, ok := cache.Get(CacheKey(testRequest())); ok {
		t.Error("Expected no cache entry after a backend failure")
	}

	// Backend recovers; the failed attempt must not have poisoned the cache.
	backend.err = nil
	backend.resp = &Response{Content: "recovered"}
	resp, err := client.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete after recovery failed: %v", err)
	}
	if resp.Cached || resp.Content != "recovered" {
		t.Errorf("Expected fresh 'recovered' response, got cached=%v content=%q", resp.Cached, resp.Content)
	}
}

func TestClient_NilRequestIsConfigError(t *testing.T) {
	client := NewClient(&fakeBackend{resp: &Response{}}, nil, zerolog.Nop())
	_, err := client.Complete(context.Background(), nil)
	if !IsConfigError(err) {
		t.Errorf("Expected config error for nil request, got %v", err)
	}
}
