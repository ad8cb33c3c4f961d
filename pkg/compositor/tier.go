package compositor

import "fmt"

// Tier is one slot of the fixed layer stack.
type Tier int

// Tiers in stacking order, bottom first.
const (
	TierBody Tier = iota
	TierEdamame
	TierOutfit
	TierLeftArm
	TierRightArm
	TierEyebrows
	TierEyeWhite
	TierEyes
	TierMouth

	numTiers
)

var tierNames = [numTiers]string{
	TierBody:     "body",
	TierEdamame:  "edamame",
	TierOutfit:   "outfit",
	TierLeftArm:  "left-arm",
	TierRightArm: "right-arm",
	TierEyebrows: "eyebrows",
	TierEyeWhite: "eye-white",
	TierEyes:     "eyes",
	TierMouth:    "mouth",
}

func (t Tier) String() string {
	if t < 0 || t >= numTiers {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// ParseTier returns the tier with the given name.
func ParseTier(s string) (Tier, error) {
	for t, name := range tierNames {
		if name == s {
			return Tier(t), nil
		}
	}
	return 0, fmt.Errorf("compositor: unknown tier %q", s)
}

// Tiers returns all tiers in stacking order.
func Tiers() []Tier {
	ts := make([]Tier, numTiers)
	for i := range ts {
		ts[i] = Tier(i)
	}
	return ts
}

// Base reports whether t belongs to the static base image, i.e. does not
// depend on the expression.
func (t Tier) Base() bool {
	return t < TierEyeWhite
}

// Required reports whether a missing layer for t is worth a warning.
func (t Tier) Required() bool {
	return t == TierBody
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
