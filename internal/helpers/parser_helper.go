package helpers

import (
	"strings"
)

// SplitLines breaks textarea-style input into trimmed, non-empty lines.
func SplitLines(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, line := range strings.Split(v, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}
