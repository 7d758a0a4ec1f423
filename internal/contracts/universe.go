package contracts

import "strings"

// NormalizeTicker trims and upper-cases a ticker symbol
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// DedupeTickers normalizes tickers, drops blanks and keeps the first
// occurrence of each. It returns the cleaned list and the dropped duplicates.
func DedupeTickers(tickers []string) ([]string, []string) {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	var dupes []string

	for _, raw := range tickers {
		t := NormalizeTicker(raw)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			dupes = append(dupes, t)
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out, dupes
}
