package ccwalker

import (
	"testing"

	lru "github.com/hashicorp/golang-lru"
)

func TestExtractHost(t *testing.T) {
	host, ok := extractHost("https://www.Example.com/page", nil)
	if !ok || host != "www.example.com" {
		t.Errorf("extractHost = %q, %v; want www.example.com, true", host, ok)
	}

	if _, ok := extractHost("", nil); ok {
		t.Error("expected empty target URI to fail host extraction")
	}

	if _, ok := extractHost("not a url at all \x7f", nil); ok {
		t.Error("expected unparseable target URI to fail host extraction")
	}
}

func TestExtractHostCache(t *testing.T) {
	cache, err := lru.New(8)
	if err != nil {
		t.Fatalf("lru.New failed: %v", err)
	}

	host, ok := extractHost("https://cache.example.com/a", cache)
	if !ok || host != "cache.example.com" {
		t.Fatalf("extractHost = %q, %v; want cache.example.com, true", host, ok)
	}

	if cached, hit := cache.Get("https://cache.example.com/a"); !hit || cached != "cache.example.com" {
		t.Errorf("expected host to be cached, got %v, %v", cached, hit)
	}

	host2, ok := extractHost("https://cache.example.com/a", cache)
	if !ok || host2 != "cache.example.com" {
		t.Errorf("expected cached lookup to still resolve, got %q, %v", host2, ok)
	}
}
