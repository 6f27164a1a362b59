package realm

import (
	"math"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	unbaseScale = 0.95
	partialBase = 0.90
)

// Score is a 0-100 weighted similarity between two realm names.
// Both sides are folded to lower-case ASCII words first. Strings of similar
// length compare whole and by sorted/deduplicated tokens; when one is at least
// 1.5 times longer, its best-matching substring is compared instead, scaled down.
func Score(a, b string) int {
	p1, p2 := fold(a), fold(b)
	if p1 == "" || p2 == "" {
		return 0
	}

	base := float64(ratio(p1, p2))
	lenRatio := float64(max(len(p1), len(p2))) / float64(min(len(p1), len(p2)))

	if lenRatio < 1.5 {
		tsor := float64(ratio(sortTokens(p1), sortTokens(p2))) * unbaseScale
		tser := float64(tokenSet(p1, p2, ratio)) * unbaseScale
		return roundHalfEven(max(base, tsor, tser))
	}

	partialScale := partialBase
	if lenRatio > 8 {
		partialScale = 0.6
	}
	partial := float64(partialRatio(p1, p2)) * partialScale
	ptsor := float64(partialRatio(sortTokens(p1), sortTokens(p2))) * unbaseScale * partialScale
	ptser := float64(tokenSet(p1, p2, partialRatio)) * unbaseScale * partialScale
	return roundHalfEven(max(base, partial, ptsor, ptser))
}

// fold drops non-ASCII runes, turns every other non-alphanumeric into a space,
// lowercases and trims
func fold(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 128:
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte(' ')
		}
	}
	return strings.TrimSpace(sb.String())
}

func chars(s string) []string {
	out := make([]string, len(s))
	for i := range len(s) {
		out[i] = s[i : i+1]
	}
	return out
}

func matcher(a, b string) *difflib.SequenceMatcher {
	return difflib.NewMatcher(chars(a), chars(b))
}

func ratio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return roundHalfEven(100 * matcher(a, b).Ratio())
}

// partialRatio scores the shorter string against the best aligned window of the longer one
func partialRatio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := a, b
	if len(a) > len(b) {
		shorter, longer = b, a
	}

	best := 0.0
	for _, block := range matcher(shorter, longer).GetMatchingBlocks() {
		start := max(block.B-block.A, 0)
		end := min(start+len(shorter), len(longer))
		r := matcher(shorter, longer[start:end]).Ratio()
		if r > 0.995 {
			return 100
		}
		best = max(best, r)
	}
	return roundHalfEven(100 * best)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSet compares the shared tokens against each side's full token set
func tokenSet(a, b string, score func(string, string) int) int {
	set1, set2 := tokenSetOf(a), tokenSetOf(b)

	var shared, only1, only2 []string
	for tok := range set1 {
		if _, ok := set2[tok]; ok {
			shared = append(shared, tok)
		} else {
			only1 = append(only1, tok)
		}
	}
	for tok := range set2 {
		if _, ok := set1[tok]; !ok {
			only2 = append(only2, tok)
		}
	}
	sort.Strings(shared)
	sort.Strings(only1)
	sort.Strings(only2)

	sect := strings.Join(shared, " ")
	combined1 := strings.TrimSpace(sect + " " + strings.Join(only1, " "))
	combined2 := strings.TrimSpace(sect + " " + strings.Join(only2, " "))

	return max(score(sect, combined1), score(sect, combined2), score(combined1, combined2))
}

func tokenSetOf(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func roundHalfEven(f float64) int {
	return int(math.RoundToEven(f))
}
