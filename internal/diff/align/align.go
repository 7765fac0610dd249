// Package align implements the LCS-based draw-sequence alignment of
// spec.md §4.9: key two draw lists by marker path when available, else
// fall back to a lower-confidence type/shader/topology key, and emit an
// ordered list of matched/inserted/deleted pairs along the LCS diagonal.
package align

import "strings"

// Draw is the subset of a draw row the aligner needs, independent of
// which side of a diff it came from.
type Draw struct {
	EID        uint64
	Marker     string
	DrawType   string
	ShaderHash uint64
	Topology   string
	Triangles  uint64
	Instances  uint64
}

// Confidence reports how the keys used for this alignment were derived.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // marker-path keyed
	ConfidenceMedium Confidence = "medium" // type/shader/topology fallback
)

// Pair is one entry of the aligned output; A or B is nil on either side
// of an insert/delete (spec.md §4.9 step 3).
type Pair struct {
	A *Draw
	B *Draw
}

// marketLCSThreshold is the combined-length cutoff above which alignment
// buckets by top-level marker token instead of running one global LCS
// (spec.md §4.9 step 2).
const marketLCSThreshold = 500

// Align aligns two draw sequences and reports the confidence of the keys
// it used.
func Align(a, b []Draw) ([]Pair, Confidence) {
	conf := ConfidenceHigh
	if !anyHasMarker(a) && !anyHasMarker(b) {
		conf = ConfidenceMedium
	}

	keyA, keyB := keyFuncs(conf, a, b)
	akeys := make([]string, len(a))
	for i := range a {
		akeys[i] = keyA(a[i])
	}
	bkeys := make([]string, len(b))
	for i := range b {
		bkeys[i] = keyB(b[i])
	}

	if len(a)+len(b) <= marketLCSThreshold {
		return lcsAlign(a, akeys, b, bkeys), conf
	}
	return bucketedAlign(a, akeys, b, bkeys), conf
}

func anyHasMarker(ds []Draw) bool {
	for _, d := range ds {
		if d.Marker != "" {
			return true
		}
	}
	return false
}

// keyFuncs returns the per-draw key functions for sequence a and b.
// Marker keys additionally need each draw's occurrence index within its
// own sequence's (marker, type) group, so repeated draws under the same
// marker don't all collapse onto one LCS cell.
func keyFuncs(conf Confidence, a, b []Draw) (func(Draw) string, func(Draw) string) {
	if conf == ConfidenceMedium {
		fn := func(d Draw) string {
			return d.DrawType + "\x00" + itoa(d.ShaderHash) + "\x00" + d.Topology
		}
		return fn, fn
	}
	occA := occurrences(a)
	occB := occurrences(b)
	keyA := func(d Draw) string {
		return d.Marker + "\x00" + d.DrawType + "\x00" + itoa(uint64(occA[d.EID]))
	}
	keyB := func(d Draw) string {
		return d.Marker + "\x00" + d.DrawType + "\x00" + itoa(uint64(occB[d.EID]))
	}
	return keyA, keyB
}

// occurrences maps each draw's EID to its 0-based occurrence index
// within its own (marker, type) group, scoped to one sequence.
func occurrences(ds []Draw) map[uint64]int {
	seen := map[string]int{}
	out := make(map[uint64]int, len(ds))
	for _, d := range ds {
		group := d.Marker + "\x00" + d.DrawType
		out[d.EID] = seen[group]
		seen[group]++
	}
	return out
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// lcsAlign runs a single classic O(n*m) LCS over the key sequences and
// reconstructs the diagonal as a list of matched/inserted/deleted pairs.
func lcsAlign(a []Draw, akeys []string, b []Draw, bkeys []string) []Pair {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if akeys[i] == bkeys[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var out []Pair
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case akeys[i] == bkeys[j]:
			out = append(out, Pair{A: &a[i], B: &b[j]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			out = append(out, Pair{A: &a[i]})
			i++
		default:
			out = append(out, Pair{B: &b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		out = append(out, Pair{A: &a[i]})
	}
	for ; j < m; j++ {
		out = append(out, Pair{B: &b[j]})
	}
	return out
}

// bucketedAlign groups both sequences by their marker's top-level token
// (split_once("/")) and runs lcsAlign within each bucket, visiting
// buckets in the order they first appear across the union of both
// sequences so the output stays close to source order.
func bucketedAlign(a []Draw, akeys []string, b []Draw, bkeys []string) []Pair {
	type bucket struct {
		aIdx, bIdx []int
	}
	buckets := map[string]*bucket{}
	var order []string

	ensure := func(tok string) *bucket {
		bk, ok := buckets[tok]
		if !ok {
			bk = &bucket{}
			buckets[tok] = bk
			order = append(order, tok)
		}
		return bk
	}

	for i, d := range a {
		tok := topLevelToken(d.Marker)
		bk := ensure(tok)
		bk.aIdx = append(bk.aIdx, i)
	}
	for j, d := range b {
		tok := topLevelToken(d.Marker)
		bk := ensure(tok)
		bk.bIdx = append(bk.bIdx, j)
	}

	var out []Pair
	for _, tok := range order {
		bk := buckets[tok]
		suba := make([]Draw, len(bk.aIdx))
		subAkeys := make([]string, len(bk.aIdx))
		for n, idx := range bk.aIdx {
			suba[n] = a[idx]
			subAkeys[n] = akeys[idx]
		}
		subb := make([]Draw, len(bk.bIdx))
		subBkeys := make([]string, len(bk.bIdx))
		for n, idx := range bk.bIdx {
			subb[n] = b[idx]
			subBkeys[n] = bkeys[idx]
		}
		out = append(out, lcsAlign(suba, subAkeys, subb, subBkeys)...)
	}
	return out
}

func topLevelToken(marker string) string {
	tok, _, _ := strings.Cut(marker, "/")
	return tok
}
