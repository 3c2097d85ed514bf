package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunk splits text into pieces of at most maxRunes runes. Sentence
// boundaries are preferred, then whitespace, then a hard cut. Chunks are
// trimmed and returned in reading order. A non-positive maxRunes disables
// splitting.
func Chunk(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	var (
		chunks     []string
		current    strings.Builder
		currentLen int
	)
	flush := func() {
		if piece := strings.TrimSpace(current.String()); piece != "" {
			chunks = append(chunks, piece)
		}
		current.Reset()
		currentLen = 0
	}

	for _, sentence := range splitSentences(text) {
		n := utf8.RuneCountInString(strings.TrimRightFunc(sentence, unicode.IsSpace))
		if currentLen+n <= maxRunes {
			current.WriteString(sentence)
			currentLen += utf8.RuneCountInString(sentence)
			continue
		}
		flush()
		if n <= maxRunes {
			current.WriteString(sentence)
			currentLen = utf8.RuneCountInString(sentence)
			continue
		}
		chunks = append(chunks, splitWords(sentence, maxRunes)...)
	}
	flush()
	return chunks
}

// sentenceEnd reports runes that close a sentence in the scripts we dub.
func sentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '。', '！', '？', '…', '．':
		return true
	}
	return false
}

// closer reports runes that trail a sentence terminator and belong with it.
func closer(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '」', '』', '）', '”', '’':
		return true
	}
	return false
}

// splitSentences cuts text after each terminator, keeping trailing closers
// and whitespace attached to the sentence they end.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !sentenceEnd(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && (sentenceEnd(runes[j]) || closer(runes[j])) {
			j++
		}
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		sentences = append(sentences, string(runes[start:j]))
		start = j
		i = j - 1
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func splitWords(sentence string, maxRunes int) []string {
	var (
		chunks     []string
		current    strings.Builder
		currentLen int
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
		}
		current.Reset()
		currentLen = 0
	}
	for _, word := range strings.Fields(sentence) {
		n := utf8.RuneCountInString(word)
		sep := 0
		if currentLen > 0 {
			sep = 1
		}
		if currentLen+sep+n <= maxRunes {
			if sep == 1 {
				current.WriteByte(' ')
			}
			current.WriteString(word)
			currentLen += sep + n
			continue
		}
		flush()
		if n <= maxRunes {
			current.WriteString(word)
			currentLen = n
			continue
		}
		runes := []rune(word)
		for len(runes) > maxRunes {
			chunks = append(chunks, string(runes[:maxRunes]))
			runes = runes[maxRunes:]
		}
		current.WriteString(string(runes))
		currentLen = len(runes)
	}
	flush()
	return chunks
}
