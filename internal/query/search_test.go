package query

import (
	"strings"
	"testing"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/shadercache"
)

func TestSearchFindsMatchAcrossShaders(t *testing.T) {
	cache := shadercache.New(replay.NewFake())
	cache.Disasm[1] = &shadercache.Entry{
		Stages:     map[replay.Stage]bool{replay.StagePS: true},
		DisasmText: "mov r0, r1\nsample r2, t0, s0\nmul r3, r2, r0",
	}

	matches, truncated, err := Search(cache, SearchOptions{Pattern: "sample"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if truncated {
		t.Error("truncated = true, want false")
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].Line != 2 {
		t.Errorf("Line = %d, want 2", matches[0].Line)
	}
}

func TestSearchIsCaseInsensitiveByDefault(t *testing.T) {
	cache := shadercache.New(replay.NewFake())
	cache.Disasm[1] = &shadercache.Entry{DisasmText: "SAMPLE r0, t0, s0"}

	matches, _, err := Search(cache, SearchOptions{Pattern: "sample"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
}

func TestSearchCaseSensitiveExcludesDifferentCase(t *testing.T) {
	cache := shadercache.New(replay.NewFake())
	cache.Disasm[1] = &shadercache.Entry{DisasmText: "SAMPLE r0, t0, s0"}

	matches, _, err := Search(cache, SearchOptions{Pattern: "sample", CaseSensitive: true})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0", len(matches))
	}
}

func TestSearchFiltersByStage(t *testing.T) {
	cache := shadercache.New(replay.NewFake())
	cache.Disasm[1] = &shadercache.Entry{
		Stages:     map[replay.Stage]bool{replay.StageVS: true},
		DisasmText: "sample r0, t0, s0",
	}

	matches, _, err := Search(cache, SearchOptions{Pattern: "sample", Stage: string(replay.StagePS)})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0 (wrong stage filtered out)", len(matches))
	}
}

func TestSearchRecordsContextLines(t *testing.T) {
	cache := shadercache.New(replay.NewFake())
	cache.Disasm[1] = &shadercache.Entry{
		DisasmText: strings.Join([]string{"a", "b", "sample", "d", "e"}, "\n"),
	}

	matches, _, err := Search(cache, SearchOptions{Pattern: "sample", Context: 2})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	m := matches[0]
	if len(m.Before) != 2 || m.Before[0] != "a" || m.Before[1] != "b" {
		t.Errorf("Before = %v, want [a b]", m.Before)
	}
	if len(m.After) != 2 || m.After[0] != "d" || m.After[1] != "e" {
		t.Errorf("After = %v, want [d e]", m.After)
	}
}

func TestSearchTruncatesAtLimit(t *testing.T) {
	cache := shadercache.New(replay.NewFake())
	cache.Disasm[1] = &shadercache.Entry{
		DisasmText: strings.Repeat("sample r0\n", 10),
	}

	matches, truncated, err := Search(cache, SearchOptions{Pattern: "sample", Limit: 3})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !truncated {
		t.Error("truncated = false, want true")
	}
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
}

func TestSearchRejectsOverlongPattern(t *testing.T) {
	cache := shadercache.New(replay.NewFake())
	_, _, err := Search(cache, SearchOptions{Pattern: strings.Repeat("a", maxPatternLen+1)})
	if err == nil {
		t.Fatal("expected an error for an overlong pattern")
	}
}

func TestSearchRejectsInvalidRegex(t *testing.T) {
	cache := shadercache.New(replay.NewFake())
	_, _, err := Search(cache, SearchOptions{Pattern: "(unclosed"})
	if err == nil {
		t.Fatal("expected an error for invalid regex")
	}
}
