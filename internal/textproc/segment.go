// Package textproc holds the pure text transforms used by the flashcard
// pipeline: sentence segmentation, chunking, key-point selection,
// question extraction and whitespace normalization.
package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinSentenceWords is the smallest word count a sentence needs to be
// considered a key statement.
const MinSentenceWords = 6

// A sentence is a maximal run of non-terminators followed by one or more
// terminators.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Sentences returns the terminator-delimited sentences of text, in order.
// Text after the last terminator is not a sentence and is not returned.
func Sentences(text string) []string {
	return sentencePattern.FindAllString(text, -1)
}

// FilterSentences trims each sentence and keeps the ones with at least
// MinSentenceWords whitespace-delimited words. Order is preserved.
func FilterSentences(sentences []string) []string {
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len(strings.Fields(s)) >= MinSentenceWords {
			out = append(out, s)
		}
	}
	return out
}

// KeySentences segments text into sentences and drops the short ones.
func KeySentences(text string) []string {
	return FilterSentences(Sentences(text))
}

// SplitIntoChunks packs text into chunks of at most maxChars characters,
// following paragraph boundaries first and sentence boundaries inside
// oversized paragraphs. A single sentence longer than maxChars becomes its
// own chunk rather than being cut. Whitespace-only paragraphs are skipped.
func SplitIntoChunks(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 1
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, paragraph := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		if utf8.RuneCountInString(paragraph) <= maxChars {
			flush()
			chunks = append(chunks, strings.TrimSpace(paragraph))
			continue
		}

		for _, sentence := range sentenceUnits(paragraph) {
			if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(sentence) > maxChars {
				flush()
			}
			current.WriteString(sentence)
		}
		flush()
	}

	return chunks
}

// sentenceUnits splits a paragraph into sentences and keeps any trailing
// fragment without a terminator so no text is lost during chunking.
func sentenceUnits(paragraph string) []string {
	idx := sentencePattern.FindAllStringIndex(paragraph, -1)
	units := make([]string, 0, len(idx)+1)
	end := 0
	for _, loc := range idx {
		units = append(units, paragraph[loc[0]:loc[1]])
		end = loc[1]
	}
	if tail := paragraph[end:]; strings.TrimSpace(tail) != "" {
		units = append(units, tail)
	}
	return units
}
