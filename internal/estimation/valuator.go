package estimation

import (
	"math"

	"github.com/walkin/intake/internal/models"
)

// defaultConditionMultiplier covers conditions outside the known table.
const defaultConditionMultiplier = 0.8

var conditionMultipliers = map[models.Condition]float64{
	models.ConditionNew:       1.0,
	models.ConditionNewLower:  1.0,
	models.ConditionExcellent: 1.0,
	models.ConditionGood:      0.8,
	models.ConditionFair:      0.6,
	models.ConditionPoor:      0.4,
}

func ConditionMultiplier(condition models.Condition) float64 {
	if m, ok := conditionMultipliers[condition]; ok {
		return m
	}
	return defaultConditionMultiplier
}

// KnownCondition reports whether condition has its own multiplier.
func KnownCondition(condition models.Condition) bool {
	_, ok := conditionMultipliers[condition]
	return ok
}

// ComputeConditionValue is the declared value of an item worth baseValue new,
// rounded to cents. Negative or non-finite base values count as zero.
func ComputeConditionValue(baseValue float64, condition models.Condition) float64 {
	if baseValue <= 0 || math.IsNaN(baseValue) || math.IsInf(baseValue, 0) {
		return 0
	}
	return RoundCents(baseValue * ConditionMultiplier(condition))
}

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
