package textproc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("sentence %d", i)
	}
	return out
}

func TestSelectKeyPoints_FewerThanRequested(t *testing.T) {
	t.Parallel()

	in := numbered(3)
	got := SelectKeyPoints(in, 5)

	assert.Equal(t, in, got)
}

func TestSelectKeyPoints_FiveChooseThree(t *testing.T) {
	t.Parallel()

	in := numbered(5)
	got := SelectKeyPoints(in, 3)

	assert.Equal(t, []string{"sentence 0", "sentence 1", "sentence 2"}, got)
}

func TestSelectKeyPoints_EvenInterval(t *testing.T) {
	t.Parallel()

	got := SelectKeyPoints(numbered(10), 3)

	assert.Equal(t, []string{"sentence 0", "sentence 3", "sentence 6"}, got)
}

func TestSelectKeyPoints_Cardinality(t *testing.T) {
	t.Parallel()

	for l := 0; l <= 25; l++ {
		for n := 1; n <= 12; n++ {
			in := numbered(l)
			got := SelectKeyPoints(in, n)

			require.Len(t, got, min(l, n), "L=%d n=%d", l, n)

			last := -1
			for _, s := range got {
				var idx int
				_, err := fmt.Sscanf(s, "sentence %d", &idx)
				require.NoError(t, err)
				assert.Greater(t, idx, last, "L=%d n=%d", l, n)
				last = idx
			}
		}
	}
}

func TestSelectKeyPoints_NonPositiveCount(t *testing.T) {
	t.Parallel()

	assert.Nil(t, SelectKeyPoints(numbered(4), 0))
	assert.Nil(t, SelectKeyPoints(numbered(4), -1))
}
