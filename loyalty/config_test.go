package loyalty_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/loyalty-engine/loyalty"
)

func TestNewBundle_PortalDefaultsAreValid(t *testing.T) {
	b, err := loyalty.NewBundle(portalDefinition())
	require.NoError(t, err)

	assert.True(t, b.PointsPerActiveDay().Equal(num(10)))
	assert.Len(t, b.VolumeCriteria(), 4)
	assert.Len(t, b.PointsCriteria(), 4)
	assert.Len(t, b.Milestones(), 5)
	assert.Len(t, b.ConsecutiveBonuses(), 5)
	assert.Len(t, b.MonthlyFrequencyBonuses(), 3)
}

func TestNewBundle_SortsCriteriaByTier(t *testing.T) {
	// GIVEN: Criteria rows listed highest tier first
	def := portalDefinition()
	for i, j := 0, len(def.VolumeCriteria)-1; i < j; i, j = i+1, j-1 {
		def.VolumeCriteria[i], def.VolumeCriteria[j] = def.VolumeCriteria[j], def.VolumeCriteria[i]
	}

	// WHEN: Building the bundle
	b := mustBundle(t, def)

	// THEN: Rows come back in tier order
	got := b.VolumeCriteria()
	for i, tier := range loyalty.PromotableTiers {
		assert.Equal(t, tier, got[i].Tier)
	}
}

func TestNewBundle_IsImmutable(t *testing.T) {
	// GIVEN: A bundle built from a definition
	def := portalDefinition()
	b := mustBundle(t, def)

	// WHEN: Mutating both the source definition and an accessor copy
	def.Milestones[0].BonusPoints = num(99999)
	copied := b.Milestones()
	copied[0].Enabled = false

	// THEN: The bundle is unaffected
	assert.True(t, b.Milestones()[0].BonusPoints.Equal(num(100)))
	assert.True(t, b.Milestones()[0].Enabled)
}

func TestNewBundle_RejectsNonIncreasingVolume(t *testing.T) {
	// GIVEN: ADVANCE asks for fewer orders than STANDARD
	def := portalDefinition()
	def.VolumeCriteria[1].MinOrderCount = 40

	// WHEN/THEN: Construction fails with a configuration error
	_, err := loyalty.NewBundle(def)
	require.Error(t, err)
	assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)

	var cfgErr *loyalty.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "volume_criteria[ADVANCE].min_order_count", cfgErr.Field)
}

func TestNewBundle_RejectsEqualSalesThresholds(t *testing.T) {
	// Strictly increasing: equal is not enough.
	def := portalDefinition()
	def.VolumeCriteria[2].MinTotalSales = def.VolumeCriteria[1].MinTotalSales

	_, err := loyalty.NewBundle(def)
	assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)
}

func TestNewBundle_RejectsNonIncreasingPoints(t *testing.T) {
	def := portalDefinition()
	def.PointsCriteria[3].RequiredPoints = num(6000)

	_, err := loyalty.NewBundle(def)
	assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)
}

func TestNewBundle_RejectsNegatives(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*loyalty.BundleDefinition)
	}{
		{"points per day", func(d *loyalty.BundleDefinition) { d.PointsPerActiveDay = num(-1) }},
		{"milestone threshold", func(d *loyalty.BundleDefinition) { d.Milestones[0].ThresholdDays = -30 }},
		{"milestone bonus", func(d *loyalty.BundleDefinition) { d.Milestones[0].BonusPoints = num(-100) }},
		{"consecutive bonus", func(d *loyalty.BundleDefinition) { d.ConsecutiveBonuses[1].BonusPoints = num(-5) }},
		{"monthly min days", func(d *loyalty.BundleDefinition) { d.MonthlyBonuses[0].MinDaysPerMonth = num(-1) }},
		{"monthly bonus", func(d *loyalty.BundleDefinition) { d.MonthlyBonuses[2].BonusPoints = num(-1) }},
		{"standard orders", func(d *loyalty.BundleDefinition) { d.VolumeCriteria[0].MinOrderCount = -1 }},
		{"standard points", func(d *loyalty.BundleDefinition) { d.PointsCriteria[0].RequiredPoints = num(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := portalDefinition()
			tt.mutate(&def)
			_, err := loyalty.NewBundle(def)
			assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)
		})
	}
}

func TestNewBundle_DisabledRowsAreStillValidated(t *testing.T) {
	def := portalDefinition()
	def.Milestones[4].Enabled = false
	def.Milestones[4].BonusPoints = num(-1)

	_, err := loyalty.NewBundle(def)
	assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)
}

func TestNewBundle_RequiresOneRowPerPromotableTier(t *testing.T) {
	t.Run("missing tier", func(t *testing.T) {
		def := portalDefinition()
		def.PointsCriteria = def.PointsCriteria[:3]
		_, err := loyalty.NewBundle(def)
		assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "missing row for LEGEND")
	})

	t.Run("light has no criterion", func(t *testing.T) {
		def := portalDefinition()
		def.VolumeCriteria = append(def.VolumeCriteria, loyalty.VolumeCriterion{Tier: loyalty.TierLight})
		_, err := loyalty.NewBundle(def)
		assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)
	})

	t.Run("duplicate tier", func(t *testing.T) {
		def := portalDefinition()
		def.PointsCriteria = append(def.PointsCriteria, loyalty.PointsCriterion{Tier: loyalty.TierElite, RequiredPoints: num(7000)})
		_, err := loyalty.NewBundle(def)
		assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)
	})
}

func TestNewBundle_ReportsEveryViolation(t *testing.T) {
	// GIVEN: Three independent problems
	def := portalDefinition()
	def.PointsPerActiveDay = num(-10)
	def.Milestones[1].ThresholdDays = -1
	def.MonthlyBonuses[0].BonusPoints = num(-30)

	// WHEN
	_, err := loyalty.NewBundle(def)

	// THEN: All three are reported, each a *ConfigError
	violations := loyalty.Violations(err)
	require.Len(t, violations, 3)
	for _, v := range violations {
		var cfgErr *loyalty.ConfigError
		assert.True(t, errors.As(v, &cfgErr))
	}
	assert.True(t, loyalty.IsClientError(err))
}

func TestBundle_DefinitionRoundTrip(t *testing.T) {
	b := mustBundle(t, portalDefinition())

	again, err := loyalty.NewBundle(b.Definition())
	require.NoError(t, err)
	assert.Equal(t, b.Definition(), again.Definition())
}

func TestParseTier(t *testing.T) {
	tier, err := loyalty.ParseTier(" elite ")
	require.NoError(t, err)
	assert.Equal(t, loyalty.TierElite, tier)

	_, err = loyalty.ParseTier("diamond")
	assert.Error(t, err)

	assert.Equal(t, "LEGEND", loyalty.TierLegend.String())
	assert.True(t, loyalty.TierLight < loyalty.TierStandard)
	assert.False(t, loyalty.TierLight.IsPromotable())
	assert.Equal(t, loyalty.TierElite, loyalty.MaxTier(loyalty.TierStandard, loyalty.TierElite, loyalty.TierAdvance))
}
