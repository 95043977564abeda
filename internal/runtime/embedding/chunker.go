package embedding

import (
	"strings"
	"unicode"
)

// Chunker packs whole sentences into chunks of at most MaxChars bytes.
// Sentences longer than MaxChars are split on word boundaries, and words
// longer than MaxChars are cut.
type Chunker struct {
	MaxChars int
}

// NewChunker sizes chunks from a token budget at roughly 3 chars per token.
func NewChunker(maxTokens int) Chunker {
	return Chunker{MaxChars: maxTokens * 3}
}

func trimSpace(s string) string { return strings.TrimSpace(s) }

func (c Chunker) Chunk(text string) []string {
	text = trimSpace(text)
	if text == "" {
		return []string{}
	}
	if c.MaxChars <= 0 || len(text) <= c.MaxChars {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if s := trimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}
	add := func(piece string) {
		if cur.Len() > 0 && cur.Len()+1+len(piece) > c.MaxChars {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(piece)
	}

	for _, sentence := range splitSentences(text) {
		if len(sentence) <= c.MaxChars {
			add(sentence)
			continue
		}
		for _, part := range splitWords(sentence, c.MaxChars) {
			add(part)
		}
	}
	flush()
	return chunks
}

// splitSentences breaks after . ! or ? followed by whitespace or end of text.
func splitSentences(text string) []string {
	runes := []rune(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text))

	var (
		out   []string
		start int
	)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			if s := trimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := trimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func splitWords(sentence string, maxChars int) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, word := range strings.Fields(sentence) {
		for len(word) > maxChars {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			cut := cutPoint(word, maxChars)
			out = append(out, word[:cut])
			word = word[cut:]
		}
		if cur.Len() > 0 && cur.Len()+1+len(word) > maxChars {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// cutPoint backs off to a rune boundary at or before n.
func cutPoint(s string, n int) int {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	if n == 0 {
		return len(s)
	}
	return n
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
