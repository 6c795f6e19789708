package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "line breaks", text: "one\r\ntwo\nthree\rfour", want: "one two three four"},
		{name: "whitespace runs", text: "  a \t\t b   c  ", want: "a b c"},
		{name: "blank lines", text: "para one.\n\n\npara two.", want: "para one. para two."},
		{name: "empty", text: " \n\t ", want: ""},
		{name: "non-breaking spaces", text: "alpha\u00a0\u00a0beta", want: "alpha beta"},
		{name: "unicode separators", text: "beta\vgamma\u2028delta\u0085epsilon", want: "beta gamma delta epsilon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got))
		})
	}
}
