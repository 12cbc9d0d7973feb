package pathcanon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalResolvesSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.py")
	if err := os.WriteFile(real, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.py")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	c := New()
	got := c.Canonical(link)
	want, err := filepath.EvalSymlinks(real)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Canonical(%q) = %q, want %q", link, got, want)
	}
}

func TestCanonicalIsMemoized(t *testing.T) {
	dir := t.TempDir()
	c := New()
	first := c.Canonical(dir)
	if _, ok := c.cache.Get(dir); !ok {
		t.Fatal("expected dir to be cached after first call")
	}
	second := c.Canonical(dir)
	if first != second {
		t.Errorf("Canonical() not stable: %q != %q", first, second)
	}
}

func TestCanonicalFallsBackOnMissingPath(t *testing.T) {
	c := New()
	missing := filepath.Join(t.TempDir(), "does-not-exist.py")
	got := c.Canonical(missing)
	if !filepath.IsAbs(got) {
		t.Errorf("Canonical(%q) = %q, want an absolute path", missing, got)
	}
}
