package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheermoteTiersStaySorted(t *testing.T) {
	c := NewCheermote("Cheer")
	c.AddTier(CheermoteTier{Threshold: 1000, CanCheer: true})
	c.AddTier(CheermoteTier{Threshold: 1, CanCheer: true})
	c.AddTier(CheermoteTier{Threshold: 100, CanCheer: true})
	c.AddTier(CheermoteTier{Threshold: 10000, CanCheer: true})

	tiers := c.Tiers()
	require.Len(t, tiers, 4)
	prev := 0
	for _, tier := range tiers {
		assert.GreaterOrEqual(t, tier.Threshold, prev)
		prev = tier.Threshold
	}
}

func TestCheermoteSelectTier(t *testing.T) {
	c := NewCheermote("Cheer")
	c.AddTier(CheermoteTier{Threshold: 1, CanCheer: true})
	c.AddTier(CheermoteTier{Threshold: 100, CanCheer: true})
	c.AddTier(CheermoteTier{Threshold: 1000, CanCheer: true})

	tier, ok := c.SelectTier(250)
	require.True(t, ok)
	assert.Equal(t, 100, tier.Threshold)

	tier, ok = c.SelectTier(1000)
	require.True(t, ok)
	assert.Equal(t, 1000, tier.Threshold)

	_, ok = c.SelectTier(0)
	assert.False(t, ok)
}

func TestCheermoteSelectTierSkipsDisabled(t *testing.T) {
	c := NewCheermote("Cheer")
	c.AddTier(CheermoteTier{Threshold: 1, CanCheer: true})
	c.AddTier(CheermoteTier{Threshold: 100, CanCheer: false})

	tier, ok := c.SelectTier(250)
	require.True(t, ok)
	assert.Equal(t, 1, tier.Threshold)
}

func TestAssetBestURLPrefersLargestScale(t *testing.T) {
	a := NewAsset("Kappa")
	a.SetURL(ThemeDark, FormatStatic, 1, "s1")
	a.SetURL(ThemeDark, FormatStatic, 4, "s4")
	a.SetURL(ThemeDark, FormatStatic, 2, "s2")

	url, ok := a.BestURL(ThemeDark, FormatStatic)
	require.True(t, ok)
	assert.Equal(t, "s4", url)

	_, ok = a.BestURL(ThemeLight, FormatStatic)
	assert.False(t, ok)
}
