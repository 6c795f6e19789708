package textproc

// SelectKeyPoints picks up to n statements from sentences by even-interval
// sampling. When there are no more sentences than n, all of them are
// returned. Otherwise every step-th sentence is taken starting at index 0,
// with step = max(1, len/n), until n are collected.
// n must be positive; a non-positive n selects nothing.
func SelectKeyPoints(sentences []string, n int) []string {
	if n <= 0 || len(sentences) == 0 {
		return nil
	}
	if len(sentences) <= n {
		out := make([]string, len(sentences))
		copy(out, sentences)
		return out
	}

	step := max(1, len(sentences)/n)
	out := make([]string, 0, n)
	for i := 0; i < len(sentences) && len(out) < n; i += step {
		out = append(out, sentences[i])
	}
	return out
}
