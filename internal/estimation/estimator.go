package estimation

import "math"

// MaxEstimate caps a single container estimate. A rates file with an
// extreme multiplier must not overflow the integer conversion.
const MaxEstimate = math.MaxInt32

// Estimator turns container descriptions into item counts.
type Estimator struct {
	catalog *Catalog
}

func NewEstimator(catalog *Catalog) *Estimator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Estimator{catalog: catalog}
}

func (e *Estimator) Catalog() *Catalog {
	return e.catalog
}

// EstimateQuantity is the count of itemName that fills one containerType
// when the container holds nothing else.
func (e *Estimator) EstimateQuantity(containerType, itemName string) int {
	q := math.Round(float64(e.catalog.Baseline(itemName)) * e.catalog.Multiplier(containerType))
	switch {
	case math.IsNaN(q) || q < 0:
		return 0
	case q > MaxEstimate:
		return MaxEstimate
	}
	return int(q)
}
