package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSetGetRoundtrip(t *testing.T) {
	t.Parallel()
	c := New(time.Hour)
	c.Set("https://example.com/info", "scrape", "<html>content</html>")

	got, ok := c.Get("https://example.com/info", "scrape")
	if !ok {
		t.Fatalf("expected hit immediately after Set")
	}
	if got != "<html>content</html>" {
		t.Fatalf("Get got %v", got)
	}
}

func TestGetMissForUnknownKey(t *testing.T) {
	t.Parallel()
	c := New(time.Hour)
	if _, ok := c.Get("https://example.com/other", "scrape"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestOperationKindSeparatesEntries(t *testing.T) {
	t.Parallel()
	c := New(time.Hour)
	c.Set("https://example.com", "scrape", "page")
	c.Set("https://example.com", "generate", "answer")

	if got, _ := c.Get("https://example.com", "scrape"); got != "page" {
		t.Fatalf("scrape entry got %v", got)
	}
	if got, _ := c.Get("https://example.com", "generate"); got != "answer" {
		t.Fatalf("generate entry got %v", got)
	}
}

func TestExpiryEvictsOnGet(t *testing.T) {
	t.Parallel()
	current := time.Unix(1700000000, 0)
	c := NewWithClock(time.Hour, func() time.Time { return current })

	c.Set("res", "op", 42)

	current = current.Add(59 * time.Minute)
	if _, ok := c.Get("res", "op"); !ok {
		t.Fatalf("entry should still be fresh before ttl")
	}

	current = current.Add(time.Minute) // age == ttl exactly
	if _, ok := c.Get("res", "op"); ok {
		t.Fatalf("entry should be absent once age reaches ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be removed, have %d entries", c.Len())
	}
}

func TestSetResetsAge(t *testing.T) {
	t.Parallel()
	current := time.Unix(1700000000, 0)
	c := NewWithClock(time.Hour, func() time.Time { return current })

	c.Set("res", "op", "v1")
	current = current.Add(50 * time.Minute)
	c.Set("res", "op", "v2")
	current = current.Add(30 * time.Minute)

	got, ok := c.Get("res", "op")
	if !ok {
		t.Fatalf("rewritten entry should still be fresh")
	}
	if got != "v2" {
		t.Fatalf("Get got %v, want v2", got)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()
	c := New(time.Hour)
	c.Set("a", "op", 1)
	c.Set("b", "op", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, have %d", c.Len())
	}
	if _, ok := c.Get("a", "op"); ok {
		t.Fatalf("expected miss after Clear")
	}
}

func TestKeyDeterministic(t *testing.T) {
	t.Parallel()
	if Key("url", "scrape") != Key("url", "scrape") {
		t.Fatalf("key derivation must be deterministic")
	}
	if Key("url", "scrape") == Key("url", "generate") {
		t.Fatalf("operation kind must affect the key")
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := New(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("res-%d-%d", n, j%10)
				c.Set(key, "op", j)
				c.Get(key, "op")
				if j%50 == 0 {
					c.Clear()
				}
			}
		}(i)
	}
	wg.Wait()
}
