package ccwalker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempDomainList(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "top-1m.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write domain list fixture: %v", err)
	}
	return path
}

func TestLoadDomainWhitelist(t *testing.T) {
	path := writeTempDomainList(t, strings.Join([]string{
		"google.com",
		"facebook.com",
		"",
		"wikipedia.org",
	}, "\n"))

	list, err := LoadDomainWhitelist(path, 0)
	if err != nil {
		t.Fatalf("LoadDomainWhitelist failed: %v", err)
	}
	if list.Len() != 3 {
		t.Errorf("expected 3 hosts, got %d", list.Len())
	}
	if !list.Contains("google.com") {
		t.Error("expected google.com to be whitelisted")
	}
	if list.Contains("evil.example") {
		t.Error("did not expect evil.example to be whitelisted")
	}
}

func TestLoadDomainWhitelistLimit(t *testing.T) {
	path := writeTempDomainList(t, strings.Join([]string{
		"a.com", "b.com", "c.com", "d.com",
	}, "\n"))

	list, err := LoadDomainWhitelist(path, 2)
	if err != nil {
		t.Fatalf("LoadDomainWhitelist failed: %v", err)
	}
	if list.Len() != 2 {
		t.Errorf("expected 2 hosts under limit, got %d", list.Len())
	}
	if !list.Contains("a.com") || !list.Contains("b.com") {
		t.Error("expected first two hosts to be whitelisted")
	}
	if list.Contains("c.com") || list.Contains("d.com") {
		t.Error("did not expect hosts beyond the limit to be whitelisted")
	}
}

func TestLoadDomainWhitelistMissingFile(t *testing.T) {
	if _, err := LoadDomainWhitelist("/nonexistent/top-1m.txt", 0); err == nil {
		t.Error("expected error for missing domain list file")
	}
}

func TestDomainWhitelistNil(t *testing.T) {
	var list *DomainWhitelist
	if list.Contains("google.com") {
		t.Error("nil whitelist should contain nothing")
	}
	if list.Len() != 0 {
		t.Error("nil whitelist should have length 0")
	}
}
