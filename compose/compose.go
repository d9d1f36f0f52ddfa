package compose

import (
	"strings"
	"unicode/utf8"

	"github.com/agriaid/agriaid/core"
)

// emptyReply is sent when the plan carries no content at all. The farmer
// always gets at least one segment back.
const emptyReply = "AgriAid has no information for that request right now. Try asking about weather, soil, planting or agrovets."

// Options configure a Composer.
type Options struct {
	// MaxLength is the segment size in characters. Default 160, the single
	// GSM SMS budget.
	MaxLength int
}

// Composer renders reply plans into ordered SMS segments.
type Composer struct {
	maxLength int
}

// New constructs a Composer.
func New(optFns ...func(o *Options)) *Composer {
	opts := Options{MaxLength: 160}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxLength < 1 {
		opts.MaxLength = 160
	}
	return &Composer{maxLength: opts.MaxLength}
}

// MaxLength returns the configured segment size.
func (c *Composer) MaxLength() int { return c.maxLength }

// Compose flattens the plan's blocks and splits them into segments of at
// most MaxLength characters. Sentences are kept whole where they fit; a
// sentence longer than a segment is split between words; only a single word
// longer than a whole segment is ever broken.
func (c *Composer) Compose(plan core.ReplyPlan) []string {
	var parts []string
	for _, b := range plan.Blocks {
		if s := strings.TrimSpace(b); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, " ")
	if text == "" {
		return []string{emptyReply}
	}

	var segments []string
	var current string
	flush := func() {
		if current != "" {
			segments = append(segments, current)
			current = ""
		}
	}
	appendPiece := func(piece string) {
		switch {
		case current == "":
			current = piece
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(piece) <= c.maxLength:
			current += " " + piece
		default:
			flush()
			current = piece
		}
	}

	for _, sentence := range splitSentences(text) {
		for _, piece := range c.fitWords(sentence) {
			appendPiece(piece)
		}
	}
	flush()
	return segments
}

// fitWords returns the sentence whole when it fits a segment, otherwise
// word-boundary chunks, hard-splitting only oversized single words.
func (c *Composer) fitWords(sentence string) []string {
	if utf8.RuneCountInString(sentence) <= c.maxLength {
		return []string{sentence}
	}

	var pieces []string
	var current string
	for _, word := range strings.Fields(sentence) {
		if utf8.RuneCountInString(word) > c.maxLength {
			if current != "" {
				pieces = append(pieces, current)
				current = ""
			}
			pieces = append(pieces, c.hardSplit(word)...)
			continue
		}
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= c.maxLength:
			current += " " + word
		default:
			pieces = append(pieces, current)
			current = word
		}
	}
	if current != "" {
		pieces = append(pieces, current)
	}
	return pieces
}

// hardSplit cuts a single word into MaxLength-rune chunks.
func (c *Composer) hardSplit(word string) []string {
	var chunks []string
	runes := []rune(word)
	for len(runes) > 0 {
		n := c.maxLength
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

// splitSentences cuts the text after terminal punctuation followed by a
// space. Abbreviation handling is deliberately absent; a spurious cut only
// moves a boundary, it never loses text.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if isTerminal(runes[i]) {
			// swallow runs of terminal punctuation ("?!", "...")
			for i+1 < len(runes) && isTerminal(runes[i+1]) {
				i++
			}
			if i+1 == len(runes) || runes[i+1] == ' ' {
				s := strings.TrimSpace(string(runes[start : i+1]))
				if s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
