package cart

// MergeQuantities folds guest lines into the user's existing quantities,
// keyed by product id. Duplicate products sum their quantities; guest lines
// with a non-positive quantity are dropped.
func MergeQuantities(existing map[string]int, guest []GuestLine) map[string]int {
	merged := make(map[string]int, len(existing)+len(guest))
	for id, qty := range existing {
		merged[id] = qty
	}
	for _, line := range guest {
		if line.ProductID == "" || line.Quantity <= 0 {
			continue
		}
		merged[line.ProductID] += line.Quantity
	}
	return merged
}

// MissingFromSet returns the guest product ids not already present in the
// user's wishlist, preserving input order and skipping duplicates within
// the guest list itself.
func MissingFromSet(existing map[string]bool, guestIDs []string) []string {
	var missing []string
	seen := make(map[string]bool, len(guestIDs))
	for _, id := range guestIDs {
		if id == "" || existing[id] || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	return missing
}
