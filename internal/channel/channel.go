package channel

import (
	"unicode/utf8"
)

// Channel delivers agent replies back to the operator.
type Channel interface {
	// Send delivers one outbound message for the given session.
	Send(sessionID, text string) error
}

// Chunk splits text into pieces of at most size bytes without breaking
// UTF-8 sequences. The pieces concatenate back to the original text.
func Chunk(text string, size int) []string {
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, len(text)/size+1)
	for len(text) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			// A single rune longer than size cannot happen with a sane
			// size, but never emit an empty chunk.
			cut = size
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
