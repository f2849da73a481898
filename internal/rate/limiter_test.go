package rate_test

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/rate"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := rate.NewMemoryLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		if err != nil || !res.Allowed {
			t.Fatalf("hit %d: %+v, %v", i, res, err)
		}
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("4th hit must be rejected")
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v", res.RetryAfter)
	}

	// Otra key no comparte la ventana.
	if res, _ := l.Allow(ctx, "5.6.7.8"); !res.Allowed {
		t.Fatal("different key must not be limited")
	}
}
