package indexer

import "github.com/ziadkadry99/docchat/internal/loader"

// DefaultSummaryLength is the number of runes of the first unit kept as a
// document's summary.
const DefaultSummaryLength = 200

// Summarize returns the first n runes of the first unit followed by "...".
// It returns "" when there are no units.
func Summarize(units []loader.Unit, n int) string {
	if len(units) == 0 {
		return ""
	}
	if n <= 0 {
		n = DefaultSummaryLength
	}
	runes := []rune(units[0].Content)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}
