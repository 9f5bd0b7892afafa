package domain

import "fmt"

// Tier is a stage in the data-maturity hierarchy.
type Tier string

const (
	TierBronze    Tier = "bronze"
	TierSilver    Tier = "silver"
	TierGold      Tier = "gold"
	TierPlatinum  Tier = "platinum"
	TierReference Tier = "reference"
)

// TierOrder is the fixed processing order. Orchestration iterates this
// slice, never the directive map, so runs are deterministic.
var TierOrder = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum, TierReference}

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierBronze, TierSilver, TierGold, TierPlatinum, TierReference:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

func (t Tier) String() string { return string(t) }
