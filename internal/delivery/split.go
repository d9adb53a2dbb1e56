package delivery

import "strings"

// SplitMessage cuts content into chunks of at most maxChars runes,
// preferring newline boundaries so paragraphs survive intact. Lines
// longer than the budget are hard-cut. maxChars <= 0 means no split.
func SplitMessage(content string, maxChars int) []string {
	if maxChars <= 0 || len([]rune(content)) <= maxChars {
		return []string{content}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			parts = append(parts, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.Split(content, "\n") {
		runes := []rune(line)
		for len(runes) > maxChars {
			flush()
			parts = append(parts, string(runes[:maxChars]))
			runes = runes[maxChars:]
		}

		// +1 for the newline separator kept within a part.
		need := len(runes)
		if currentLen > 0 {
			need++
		}
		if currentLen+need > maxChars {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte('\n')
			currentLen++
		}
		current.WriteString(string(runes))
		currentLen += len(runes)
	}
	flush()

	if len(parts) == 0 {
		parts = []string{""}
	}
	return parts
}
