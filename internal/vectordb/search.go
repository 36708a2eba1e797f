package vectordb

import (
	"fmt"
	"strings"
)

// FormatMatches renders retrieved chunks as human-readable text.
func FormatMatches(matches []Match) string {
	if len(matches) == 0 {
		return "No matching passages."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d passage(s):\n\n", len(matches))

	for i, m := range matches {
		fmt.Fprintf(&sb, "--- Passage %d (similarity: %.4f) ---\n", i+1, m.Similarity)

		if src := m.Metadata["source"]; src != "" {
			location := src
			switch {
			case m.Metadata["page"] != "":
				location += ", page " + m.Metadata["page"]
			case m.Metadata["sheet"] != "":
				location += ", sheet " + m.Metadata["sheet"]
			case m.Metadata["row"] != "":
				location += ", row " + m.Metadata["row"]
			}
			fmt.Fprintf(&sb, "Source: %s\n", location)
		}
		fmt.Fprintf(&sb, "Chunk: %d\n\n", m.Position)

		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
