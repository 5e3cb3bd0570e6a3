package chunker

import "strings"

// paragraphSeparator is the blank-line boundary between semantic units.
const paragraphSeparator = "\n\n"

// Split cuts text into passages of at most maxSize characters, seeding
// each passage after the first with the trailing overlap characters of
// the previous one. Passages never split a paragraph: a single paragraph
// longer than maxSize is emitted whole rather than truncated.
//
// The output is deterministic for identical input, which the
// deterministic document-id scheme depends on. Empty or whitespace-only
// input yields no passages.
func Split(text string, maxSize, overlap int) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, paragraphSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []string
	var buffer []string
	bufferLen := 0

	for _, para := range paragraphs {
		if bufferLen+len(para)+1 > maxSize && len(buffer) > 0 {
			emitted := strings.Join(buffer, paragraphSeparator)
			chunks = append(chunks, emitted)

			if seed := tail(emitted, overlap); seed != "" {
				buffer = []string{seed, para}
				bufferLen = len(seed) + len(para)
			} else {
				buffer = []string{para}
				bufferLen = len(para) + 1
			}
		} else {
			buffer = append(buffer, para)
			bufferLen += len(para) + 1
		}
	}

	if len(buffer) > 0 {
		chunks = append(chunks, strings.Join(buffer, paragraphSeparator))
	}

	return chunks
}

// tail returns the last n runes of s without splitting a multi-byte rune
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
