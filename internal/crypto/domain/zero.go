package domain

// Zero clears key bytes and opened secret values once they are no longer needed.
func Zero(buffers ...[]byte) {
	for _, b := range buffers {
		clear(b)
	}
}
