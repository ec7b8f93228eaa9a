package threadutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/crosswire-app/crosswire/internal/models"
)

// numberingReserve keeps room at the end of every segment for the eventual
// " i/total" suffix added by FormatWithNumbering.
const numberingReserve = 10

var ErrLimitTooSmall = errors.New("character limit must exceed the numbering reserve")

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// Segment splits text into ordered thread segments that each fit within limit,
// including the numbering suffix appended at publish time. Paragraphs are
// packed greedily; an oversized paragraph is re-split by sentence, then by
// word. A single word longer than the effective limit is hard-truncated with
// an ellipsis. The result is deterministic for a given text and limit.
func Segment(text string, limit int) ([]models.ThreadPost, error) {
	if limit <= numberingReserve {
		return nil, fmt.Errorf("%w: limit %d", ErrLimitTooSmall, limit)
	}
	max := limit - numberingReserve

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	var segments []string
	cur := ""
	flush := func() {
		if cur != "" {
			segments = append(segments, cur)
			cur = ""
		}
	}

	for _, para := range splitParagraphs(trimmed) {
		if utf8.RuneCountInString(para) > max {
			flush()
			segments = append(segments, packUnits(splitSentences(para), " ", max)...)
			continue
		}
		if cur == "" {
			cur = para
		} else if utf8.RuneCountInString(cur)+2+utf8.RuneCountInString(para) <= max {
			cur += "\n\n" + para
		} else {
			flush()
			cur = para
		}
	}
	flush()

	total := len(segments)
	posts := make([]models.ThreadPost, 0, total)
	for i, content := range segments {
		posts = append(posts, models.ThreadPost{
			Content:        content,
			CharacterCount: utf8.RuneCountInString(content),
			Index:          i + 1,
			Total:          total,
		})
	}
	return posts, nil
}

// FormatWithNumbering appends the " index/total" suffix used when a segment is
// posted as part of a thread. Single-segment content is returned unchanged.
func FormatWithNumbering(content string, index, total int) string {
	if total <= 1 {
		return content
	}
	return fmt.Sprintf("%s %d/%d", content, index, total)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphSplit.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences breaks a paragraph after terminal punctuation. Text without
// any terminator comes back as a single unit.
func splitSentences(para string) []string {
	var out []string
	runes := []rune(para)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' {
			continue
		}
		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		out = append(out, rest)
	}
	return out
}

// packUnits greedily joins units with sep up to max runes per chunk. A unit
// that alone exceeds max is split further: sentences into words, words into a
// truncated word.
func packUnits(units []string, sep string, max int) []string {
	var chunks []string
	cur := ""
	flush := func() {
		if cur != "" {
			chunks = append(chunks, cur)
			cur = ""
		}
	}
	for _, u := range units {
		if utf8.RuneCountInString(u) > max {
			flush()
			if sep == " " && strings.ContainsAny(u, " \t\n") {
				chunks = append(chunks, packUnits(strings.Fields(u), " ", max)...)
			} else {
				chunks = append(chunks, truncateWord(u, max))
			}
			continue
		}
		if cur == "" {
			cur = u
		} else if utf8.RuneCountInString(cur)+utf8.RuneCountInString(sep)+utf8.RuneCountInString(u) <= max {
			cur += sep + u
		} else {
			flush()
			cur = u
		}
	}
	flush()
	return chunks
}

func truncateWord(word string, max int) string {
	runes := []rune(word)
	if len(runes) <= max {
		return word
	}
	// No room for the ellipsis at the smallest accepted limits.
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
