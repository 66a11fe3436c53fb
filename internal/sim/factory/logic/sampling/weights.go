package sampling

// Pick returns the index chosen by u in [0,1) over weights, walking entries
// in order. Entries with weight <= 0 are never picked. Returns -1 when no
// entry has a positive weight.
func Pick(weights []float64, u float64) int {
	var total float64
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 || total <= 0 {
		return -1
	}

	target := u * total
	var acc float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if target < acc {
			return i
		}
	}
	// u*total can round up to total.
	return last
}

// Normalize returns weights scaled to sum to 1, or nil when nothing is eligible.
func Normalize(weights []float64) []float64 {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return nil
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		if w > 0 {
			out[i] = w / total
		}
	}
	return out
}
