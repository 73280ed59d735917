package estimation

import "math"

// assortedDamping keeps each share a little above an exact equal split.
// Packing is never perfect and an undercount hurts the donor's receipt more
// than an overcount.
const assortedDamping = 0.9

// EstimateAssortedQuantity is itemName's share of one containerType that
// holds totalItems distinct item types. The result is at least 1.
func (e *Estimator) EstimateAssortedQuantity(containerType, itemName string, totalItems int) int {
	full := float64(e.EstimateQuantity(containerType, itemName))
	divisor := math.Max(1, float64(totalItems)*assortedDamping)
	return int(math.Max(1, math.Round(full/divisor)))
}

// AssortedMember is the allocator's view of one item type in a group.
type AssortedMember struct {
	Key      string
	ItemName string
}

// Rebalance computes the per-container quantity for every member of a group
// from the full membership. Results are keyed by AssortedMember.Key. The
// output only depends on the inputs, so repeated calls agree.
func (e *Estimator) Rebalance(containerType string, members []AssortedMember) map[string]int {
	out := make(map[string]int, len(members))
	for _, m := range members {
		out[m.Key] = e.EstimateAssortedQuantity(containerType, m.ItemName, len(members))
	}
	return out
}
