package cache

import "testing"

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()

	if _, ok := c.Get("customer:CUST001"); ok {
		t.Error("Expected miss on empty cache")
	}

	if err := c.Set("customer:CUST001", "John Doe"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}

	val, ok := c.Get("customer:CUST001")
	if !ok || val != "John Doe" {
		t.Errorf("Expected hit with John Doe, got %q (hit=%v)", val, ok)
	}
}
