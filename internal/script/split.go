package script

import "strings"

// Separator is the batch separator line used when none is configured.
const Separator = "GO"

// Split cuts script into batches at every line exactly equal to sep,
// discarding the separator lines and keeping everything else verbatim.
// N separator lines always yield N+1 batches, empty batches included, and an
// empty script yields a single empty batch.
//
// Matching is plain line equality: a separator inside a string literal or
// block comment still splits, and a CRLF line ("GO\r") does not. Callers
// relying on either behavior get exactly what the script text says.
func Split(script, sep string) []string {
	if sep == "" {
		sep = Separator
	}

	lines := strings.Split(script, "\n")
	batches := make([]string, 0, 1)
	start := 0
	for i, line := range lines {
		if line == sep {
			batches = append(batches, strings.Join(lines[start:i], "\n"))
			start = i + 1
		}
	}
	batches = append(batches, strings.Join(lines[start:], "\n"))

	return batches
}
