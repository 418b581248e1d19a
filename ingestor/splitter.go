package ingestor

// Split cuts text into overlapping windows of at most target runes. Cut
// points prefer a paragraph break, then a sentence end, then a space within
// the tail of the window, so chunks read naturally; the overlap guarantees
// nothing is lost at the seams.
func Split(text string, target int, overlap int) []string {
	runes := []rune(text)

	if len(runes) == 0 {
		return nil
	}

	if len(runes) <= target {
		return []string{text}
	}

	if overlap >= target {
		overlap = target / 4
	}

	var windows []string

	start := 0
	for start < len(runes) {
		end := start + target
		if end >= len(runes) {
			windows = append(windows, string(runes[start:]))
			break
		}

		cut := breakpoint(runes, start, end)
		windows = append(windows, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			// window with no usable breakpoint; advance without overlap
			next = cut
		}
		start = next
	}

	return windows
}

func breakpoint(runes []rune, start int, end int) int {
	// only consider the final fifth of the window so chunks stay near the
	// target size
	lo := end - (end-start)/5
	if lo <= start {
		lo = start + 1
	}

	// paragraph break
	for i := end - 1; i > lo; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}

	// sentence end
	for i := end - 2; i >= lo; i-- {
		if isSentenceEnd(runes[i]) && isWhitespace(runes[i+1]) {
			return i + 2
		}
	}

	// any whitespace
	for i := end - 1; i >= lo; i-- {
		if isWhitespace(runes[i]) {
			return i + 1
		}
	}

	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
