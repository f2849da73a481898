package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/cache"
)

func TestMemory_SetGetDelete(t *testing.T) {
	c := cache.NewMemory(time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b, err := c.Get(ctx, "k")
	if err != nil || string(b) != "v" {
		t.Fatalf("Get = %q, %v", b, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := cache.NewMemory(time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after expiry", err)
	}
}

func TestMemory_ConsumeOnce(t *testing.T) {
	c := cache.NewMemory(time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "code", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Consumos concurrentes: exactamente uno obtiene el valor.
	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	hits := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := c.ConsumeOnce(ctx, "code")
			if err == nil {
				mu.Lock()
				hits++
				mu.Unlock()
				if string(b) != "payload" {
					t.Errorf("payload = %q", b)
				}
			}
		}()
	}
	wg.Wait()

	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
	if _, err := c.Get(ctx, "code"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatal("key must be gone after ConsumeOnce")
	}
}
