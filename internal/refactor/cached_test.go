package refactor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"refactory/internal/ingest"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, hash string, attempt int) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[fmt.Sprintf("%s/%d", hash, attempt)]
	return v, ok, nil
}

func (c *memoryCache) Put(_ context.Context, hash string, attempt int, response string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := fmt.Sprintf("%s/%d", hash, attempt)
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = response
	}
	return nil
}

func TestCachedClientReplaysResponses(t *testing.T) {
	inner := &scriptedClient{responses: []string{improvedSource}}
	cache := newMemoryCache()
	client := NewCachedClient(inner, cache, nil)

	req := &RefactorRequest{Unit: ingest.NewSourceUnit("calc.py", originalSource)}

	first, err := client.RequestRefactor(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.RequestRefactor(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("cached response differs")
	}
	if inner.callCount() != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.callCount())
	}
}

func TestCachedClientKeysByAttempt(t *testing.T) {
	inner := &scriptedClient{responses: []string{"candidate one", "candidate two"}}
	client := NewCachedClient(inner, newMemoryCache(), nil)

	unit := ingest.NewSourceUnit("calc.py", originalSource)
	first, err := client.RequestRefactor(context.Background(), &RefactorRequest{Unit: unit})
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.RequestRefactor(context.Background(), &RefactorRequest{
		Unit:     unit,
		Previous: &Attempt{Number: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Error("different attempts must not share cache entries")
	}
	if inner.callCount() != 2 {
		t.Errorf("expected 2 upstream calls, got %d", inner.callCount())
	}
}

func TestCachedClientPropagatesErrors(t *testing.T) {
	inner := &scriptedClient{responses: []string{""}, errs: []error{ErrLLMUnavailable}}
	client := NewCachedClient(inner, newMemoryCache(), nil)

	_, err := client.RequestRefactor(context.Background(), &RefactorRequest{
		Unit: ingest.NewSourceUnit("calc.py", originalSource),
	})
	if err == nil {
		t.Fatal("expected upstream error")
	}
}
