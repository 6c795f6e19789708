package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "no terminators", text: "no punctuation here", want: nil},
		{name: "mixed terminators", text: "One. Two! Three?", want: []string{"One.", " Two!", " Three?"}},
		{name: "repeated terminators", text: "Wait... what?!", want: []string{"Wait...", " what?!"}},
		{name: "trailing fragment dropped", text: "Done. and then", want: []string{"Done."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.text))
		})
	}
}

func TestKeySentences_DropsShortSentences(t *testing.T) {
	t.Parallel()

	text := "Intro. The quick brown fox jumps over dogs. Too short here! Cells divide by a process called mitosis?"
	got := KeySentences(text)

	assert.Equal(t, []string{
		"The quick brown fox jumps over dogs.",
		"Cells divide by a process called mitosis?",
	}, got)
}

func TestKeySentences_EmptyForUnterminatedText(t *testing.T) {
	t.Parallel()

	assert.Empty(t, KeySentences("no punctuation here"))
}

func TestFilterSentences_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"Short one. Another short. This sentence has exactly six words.",
		"  Leading space sentence with plenty of words in it.   Tiny.\nNew line sentence that keeps going and going!",
		"A b c d e f. A b c d e.",
	}

	for _, text := range inputs {
		once := FilterSentences(Sentences(text))
		twice := FilterSentences(once)
		assert.Equal(t, once, twice, "input %q", text)
	}
}

func TestSplitIntoChunks_ParagraphsWithinBound(t *testing.T) {
	t.Parallel()

	text := "First paragraph.\n\nSecond paragraph.\n\n   \n\nThird."
	got := SplitIntoChunks(text, 100)

	assert.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third."}, got)
}

func TestSplitIntoChunks_PacksSentencesGreedily(t *testing.T) {
	t.Parallel()

	paragraph := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota. Kappa lambda mu."
	got := SplitIntoChunks(paragraph, 40)

	require.Len(t, got, 2)
	assert.Equal(t, "Alpha beta gamma. Delta epsilon zeta.", got[0])
	assert.Equal(t, "Eta theta iota. Kappa lambda mu.", got[1])
}

func TestSplitIntoChunks_OversizedSentenceKeptWhole(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 30) + "end."
	text := "Short one. " + long + " Tail sentence."
	got := SplitIntoChunks(text, 20)

	assert.Equal(t, []string{"Short one.", long, "Tail sentence."}, got)
}

func TestSplitIntoChunks_NeverSplitsSentences(t *testing.T) {
	t.Parallel()

	paragraph := "The cell membrane controls transport. Ribosomes build proteins from amino acids! " +
		"Mitochondria produce most of the energy? The nucleus stores genetic material."
	sentences := Sentences(paragraph)

	longest := 0
	for _, s := range sentences {
		longest = max(longest, len(s))
	}

	for bound := longest; bound <= len(paragraph); bound += 7 {
		chunks := SplitIntoChunks(paragraph, bound)
		joined := strings.Join(chunks, " ")
		for _, s := range sentences {
			assert.Contains(t, joined, strings.TrimSpace(s), "bound %d", bound)
		}
		for _, chunk := range chunks {
			assert.Regexp(t, `[.!?]$`, chunk, "bound %d", bound)
		}
	}
}

func TestSplitIntoChunks_KeepsUnterminatedTail(t *testing.T) {
	t.Parallel()

	paragraph := "A complete sentence here. And a trailing fragment without end"
	got := SplitIntoChunks(paragraph, 30)

	assert.Equal(t, []string{"A complete sentence here.", "And a trailing fragment without end"}, got)
}

func TestSplitIntoChunks_CRLFParagraphs(t *testing.T) {
	t.Parallel()

	chunks := SplitIntoChunks("First para here.\r\n\r\nSecond para here.", 500)

	assert.Equal(t, []string{"First para here.", "Second para here."}, chunks)
}
