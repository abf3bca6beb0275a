package media

import "sort"

// CheermoteTier is one bit threshold of a cheermote with its artwork.
type CheermoteTier struct {
	Threshold int
	CanCheer  bool
	Asset     *Asset
}

// Cheermote is a cheer prefix ("Cheer", "Kappa", ...) with its tiers kept
// sorted ascending by bit threshold.
type Cheermote struct {
	prefix string
	tiers  []CheermoteTier
}

// NewCheermote returns an empty cheermote for the given prefix.
func NewCheermote(prefix string) *Cheermote {
	return &Cheermote{prefix: prefix}
}

// Prefix returns the cheer prefix this cheermote matches.
func (c *Cheermote) Prefix() string { return c.prefix }

// Tiers returns the tiers in ascending threshold order.
func (c *Cheermote) Tiers() []CheermoteTier { return c.tiers }

// AddTier inserts a tier at its sorted position.
func (c *Cheermote) AddTier(tier CheermoteTier) {
	i := sort.Search(len(c.tiers), func(i int) bool {
		return c.tiers[i].Threshold > tier.Threshold
	})
	c.tiers = append(c.tiers, CheermoteTier{})
	copy(c.tiers[i+1:], c.tiers[i:])
	c.tiers[i] = tier
}

// SelectTier returns the highest cheer-enabled tier whose threshold does not
// exceed the cheered amount. A 250-bit cheer on thresholds 1/100/1000 selects
// the 100 tier.
func (c *Cheermote) SelectTier(bits int) (CheermoteTier, bool) {
	var best CheermoteTier
	found := false
	for _, t := range c.tiers {
		if t.Threshold > bits {
			break
		}
		if t.CanCheer {
			best = t
			found = true
		}
	}
	return best, found
}
