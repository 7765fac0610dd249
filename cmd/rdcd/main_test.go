package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveTokenReadsFromFileAndTrimsNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("abc123\n"), 0644); err != nil {
		t.Fatal(err)
	}

	token, err := resolveToken(path)
	if err != nil {
		t.Fatalf("resolveToken error: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q, want %q", token, "abc123")
	}
}

func TestResolveTokenGeneratesWhenFileEmpty(t *testing.T) {
	token, err := resolveToken("")
	if err != nil {
		t.Fatalf("resolveToken error: %v", err)
	}
	if len(token) != 16 {
		t.Errorf("len(token) = %d, want 16", len(token))
	}
}

func TestResolveTokenErrorsOnMissingFile(t *testing.T) {
	if _, err := resolveToken(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a nonexistent token file")
	}
}

func TestTrimNewlineHandlesCRLFAndBare(t *testing.T) {
	cases := map[string]string{
		"abc\n":   "abc",
		"abc\r\n": "abc",
		"abc":     "abc",
		"":        "",
	}
	for in, want := range cases {
		if got := string(trimNewline([]byte(in))); got != want {
			t.Errorf("trimNewline(%q) = %q, want %q", in, got, want)
		}
	}
}
