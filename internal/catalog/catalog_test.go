package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvisor/pkg/models"
)

func TestPlanUnknownTier(t *testing.T) {
	c := NewStatic()

	_, err := c.Plan(models.PlanTier("platinum"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestTiersOrder(t *testing.T) {
	c := NewStatic()

	assert.Equal(t, models.AllTiers, c.Tiers())
}

func TestMonthlyCost(t *testing.T) {
	c := NewStatic()

	tests := []struct {
		name  string
		tier  models.PlanTier
		users int
		want  float64
	}{
		{"free is free", models.TierFree, 3, 0},
		{"per seat", models.TierProSmall, 10, 59.90},
		{"per seat large", models.TierProLarge, 40, 199.60},
		{"flat ignores seats", models.TierBusinessSmall, 50, 99},
		{"base without overage", models.TierBusinessLarge, 80, 199},
		{"base plus overage", models.TierBusinessLarge, 150, 199 + 50*1.50},
		{"enterprise overage", models.TierEnterprise, 300, 499 + 50*2.00},
		{"zero users floor to one seat", models.TierProSmall, 0, 5.99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := c.Plan(tt.tier)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, c.MonthlyCost(def, tt.users), 1e-9)
		})
	}
}

func TestPlanShape(t *testing.T) {
	c := NewStatic()

	free, err := c.Plan(models.TierFree)
	require.NoError(t, err)
	assert.False(t, free.IsPaid())
	assert.False(t, free.Unlimited())
	assert.Equal(t, 3, free.MaxUsers)

	enterprise, err := c.Plan(models.TierEnterprise)
	require.NoError(t, err)
	assert.True(t, enterprise.Unlimited())
	assert.True(t, enterprise.IsBusinessOrAbove())
	assert.True(t, enterprise.Features.ResourceManagement)

	proSmall, err := c.Plan(models.TierProSmall)
	require.NoError(t, err)
	assert.True(t, proSmall.IsPaid())
	assert.False(t, proSmall.IsBusinessOrAbove())
	assert.False(t, proSmall.Features.AdvancedReporting)
}
