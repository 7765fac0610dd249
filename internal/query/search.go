package query

import (
	"regexp"
	"strings"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/shadercache"
)

const maxPatternLen = 500
const defaultSearchLimit = 200

// Match is one regex search hit with surrounding context (spec.md §4.6).
type Match struct {
	Shader   uint64
	Stages   []string
	FirstEID uint64
	Line     int
	Text     string
	Before   []string
	After    []string
}

// SearchOptions mirrors the `search` RPC params (spec.md §6).
type SearchOptions struct {
	Pattern       string
	Stage         string // "" = no filter
	CaseSensitive bool
	Limit         int
	Context       int
}

// Search iterates the shader cache's disassembly strings for lines
// matching pattern, recording context lines around each hit, truncating
// at Limit.
func Search(cache *shadercache.Cache, opts SearchOptions) ([]Match, bool, error) {
	if len(opts.Pattern) > maxPatternLen {
		return nil, false, rpcerr.New(rpcerr.InvalidArgs, "pattern exceeds %d chars", maxPatternLen)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	pattern := opts.Pattern
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false, rpcerr.Wrap(rpcerr.InvalidArgs, err, "invalid regex %q", opts.Pattern)
	}

	var matches []Match
	truncated := false
	for shaderID, entry := range cache.Disasm {
		if opts.Stage != "" && !entry.Stages[replay.Stage(opts.Stage)] {
			continue
		}
		lines := strings.Split(entry.DisasmText, "\n")
		for i, line := range lines {
			if !re.MatchString(line) {
				continue
			}
			if len(matches) >= limit {
				truncated = true
				break
			}
			matches = append(matches, Match{
				Shader:   shaderID,
				Stages:   stageNames(entry.Stages),
				FirstEID: entry.FirstEID,
				Line:     i + 1,
				Text:     line,
				Before:   contextSlice(lines, i-opts.Context, i),
				After:    contextSlice(lines, i+1, i+1+opts.Context),
			})
		}
		if truncated {
			break
		}
	}
	return matches, truncated, nil
}

func stageNames(m map[replay.Stage]bool) []string {
	var out []string
	for _, s := range replay.Stages {
		if m[s] {
			out = append(out, string(s))
		}
	}
	return out
}

func contextSlice(lines []string, from, to int) []string {
	if from < 0 {
		from = 0
	}
	if to > len(lines) {
		to = len(lines)
	}
	if from >= to {
		return nil
	}
	return append([]string(nil), lines[from:to]...)
}
