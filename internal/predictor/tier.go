package predictor

import "fmt"

const (
	highThreshold     = 0.7
	moderateThreshold = 0.4
)

// Tier buckets an acceptance probability for presentation.
type Tier string

const (
	TierHigh     Tier = "high"
	TierModerate Tier = "moderate"
	TierLow      Tier = "low"
)

// Level is the banner style a tier is rendered with.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// TierFor maps p to a tier. Both thresholds are strict, so exactly 0.7 is
// moderate and exactly 0.4 is low.
func TierFor(p float64) Tier {
	switch {
	case p > highThreshold:
		return TierHigh
	case p > moderateThreshold:
		return TierModerate
	default:
		return TierLow
	}
}

// Level returns the banner style for the tier.
func (t Tier) Level() Level {
	switch t {
	case TierHigh:
		return LevelSuccess
	case TierModerate:
		return LevelWarning
	default:
		return LevelError
	}
}

// Icon is the emoji shown in front of the banner.
func (t Tier) Icon() string {
	switch t {
	case TierHigh:
		return "✅"
	case TierModerate:
		return "⚠️"
	default:
		return "❌"
	}
}

// Message renders the banner text for probability p.
func (t Tier) Message(p float64) string {
	percent := Percent(p)
	switch t {
	case TierHigh:
		return fmt.Sprintf("High Chance: %s likelihood to accept", percent)
	case TierModerate:
		return fmt.Sprintf("Moderate Chance: %s", percent)
	default:
		return fmt.Sprintf("Low Chance: %s - consider negotiation", percent)
	}
}

// Percent renders p as a whole percent, e.g. 0.625 -> "62%".
func Percent(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}
