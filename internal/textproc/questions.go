package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const minQuestionChars = 10

var questionBreak = regexp.MustCompile(`\?\s+`)

// ExtractQuestions pulls question-like candidates out of free-form model
// output. Candidates are separated by line breaks and by a question mark
// followed by whitespace (the mark stays with its candidate). A candidate is
// kept when, after trimming, it is longer than ten characters, contains a
// question mark and does not start with "Answer:".
func ExtractQuestions(text string) []string {
	var out []string
	for _, candidate := range questionCandidates(text) {
		candidate = strings.TrimSpace(candidate)
		if utf8.RuneCountInString(candidate) <= minQuestionChars {
			continue
		}
		if !strings.Contains(candidate, "?") || strings.HasPrefix(candidate, "Answer:") {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

func questionCandidates(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		start := 0
		for _, loc := range questionBreak.FindAllStringIndex(line, -1) {
			out = append(out, line[start:loc[0]+1])
			start = loc[1]
		}
		out = append(out, line[start:])
	}
	return out
}
