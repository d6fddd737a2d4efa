package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	got, err := ParseTier("  Twice-A-Week ")
	require.NoError(t, err)
	assert.Equal(t, TierTwiceAWeek, got)

	_, err = ParseTier("weekly")
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestContainsTier(t *testing.T) {
	allowed := []Tier{TierTwiceAWeek, TierThreePlusAWeek}
	assert.True(t, ContainsTier(allowed, TierTwiceAWeek))
	assert.False(t, ContainsTier(allowed, TierAdHoc))
	assert.False(t, ContainsTier(nil, TierAdHoc))
}

func TestParseQuotas(t *testing.T) {
	t.Run("merges over defaults", func(t *testing.T) {
		table, err := ParseQuotas([]byte(`
tiers:
  once-a-week: 2
  ad-hoc: 5
`))
		require.NoError(t, err)
		assert.Equal(t, Limit(2), table[TierOnceAWeek])
		assert.Equal(t, Limit(5), table[TierAdHoc])
		assert.Equal(t, Limit(2), table[TierTwiceAWeek])
		assert.True(t, table[TierThreePlusAWeek].IsUnlimited())
	})

	t.Run("accepts unlimited", func(t *testing.T) {
		table, err := ParseQuotas([]byte("tiers:\n  twice-a-week: unlimited\n"))
		require.NoError(t, err)
		assert.True(t, table[TierTwiceAWeek].IsUnlimited())
	})

	t.Run("rejects unknown tier", func(t *testing.T) {
		_, err := ParseQuotas([]byte("tiers:\n  gold: 3\n"))
		assert.ErrorIs(t, err, ErrInvalidTier)
	})

	t.Run("rejects negative limit", func(t *testing.T) {
		_, err := ParseQuotas([]byte("tiers:\n  once-a-week: -2\n"))
		assert.Error(t, err)
	})
}

func TestLoadQuotaFile_EmptyPathUsesDefaults(t *testing.T) {
	table, err := LoadQuotaFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultQuotas(), table)
}

func TestLimitFor_MissingTier(t *testing.T) {
	_, err := QuotaTable{}.LimitFor(TierAdHoc)
	assert.ErrorIs(t, err, ErrUnknownTier)
}
