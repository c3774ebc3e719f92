package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeKey is the lookup form of design, material and slot names:
// upper case, single spaces, no surrounding blanks.
func NormalizeKey(input string) string {
	s := strings.ReplaceAll(input, "\u00A0", " ")
	s = strings.ToUpper(s)
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SplitTags splits a comma-joined cell ("Clasica, Moderna") keeping order
// and dropping blanks and repeats.
func SplitTags(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, p := range parts {
		p = reSpaces.ReplaceAllString(strings.TrimSpace(p), " ")
		if p == "" {
			continue
		}
		key := NormalizeKey(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ParseYesNo reads the SI/NO style flags of the BOM sheet. Blank is no.
func ParseYesNo(input string) (bool, bool) {
	switch NormalizeKey(input) {
	case "SI", "SÍ", "S", "YES", "Y", "TRUE", "1", "X":
		return true, true
	case "", "NO", "N", "FALSE", "0":
		return false, true
	default:
		return false, false
	}
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}
