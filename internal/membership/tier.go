package membership

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTier = errors.New("invalid membership tier")
	ErrUnknownTier = errors.New("membership tier has no quota entry")
)

// Tier is a membership category controlling weekly quota and activity eligibility.
type Tier string

const (
	TierAdHoc          Tier = "ad-hoc"
	TierOnceAWeek      Tier = "once-a-week"
	TierTwiceAWeek     Tier = "twice-a-week"
	TierThreePlusAWeek Tier = "three-plus-a-week"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierAdHoc, TierOnceAWeek, TierTwiceAWeek, TierThreePlusAWeek:
		return true
	}
	return false
}

// ParseTier normalizes s and returns the matching Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// ContainsTier reports whether tiers contains t.
func ContainsTier(tiers []Tier, t Tier) bool {
	for _, candidate := range tiers {
		if candidate == t {
			return true
		}
	}
	return false
}
