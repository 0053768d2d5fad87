package pipeline

// batched splits items into consecutive sub-slices of at most size elements.
// The sub-slices alias the input; callers must not mutate it while iterating.
func batched[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
