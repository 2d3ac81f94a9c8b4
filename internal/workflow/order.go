package workflow

// AllocateOrder computes the rank for an item entering a bucket. A positive
// requested value is used verbatim (explicit drop position); otherwise the item
// is appended after the current maximum, starting at 1 for an empty bucket.
// Existing siblings are never renumbered, so ranks may have gaps; consumers
// sort ascending and treat the value as a display rank, not a dense sequence.
// Two concurrent appends can compute the same rank; that duplicate is an
// accepted tie, broken by insertion order.
func AllocateOrder(existing []int, requested int) int {
	if requested > 0 {
		return requested
	}
	max := 0
	for _, order := range existing {
		if order > max {
			max = order
		}
	}
	return max + 1
}
