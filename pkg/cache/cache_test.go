package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("clients:list", "value1", 1*time.Second)
	val, ok := c.Get("clients:list")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("clients:list", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	if _, ok := c.Get("clients:list"); ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("clients:list", "value1", 1*time.Second)
	c.Delete("clients:list")
	if _, ok := c.Get("clients:list"); ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("clients:list", "c", 1*time.Second)
	c.Set("clients:one:42", "c42", 1*time.Second)
	c.Set("invoices:1", "i1", 1*time.Second)
	c.Invalidate("clients:")
	if _, ok := c.Get("clients:list"); ok {
		t.Fatalf("expected clients keys to be invalidated")
	}
	if _, ok := c.Get("clients:one:42"); ok {
		t.Fatalf("expected clients keys to be invalidated")
	}
	if _, ok := c.Get("invoices:1"); !ok {
		t.Fatalf("expected invoices:1 to still exist")
	}
}
