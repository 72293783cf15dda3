package dsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
)

func TestProgram_Evaluate(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	price := 120.0
	req := &core.BuyRequest{
		ID:          "r1",
		Species:     "cattle",
		Quantity:    40,
		TargetPrice: &price,
		Location:    core.Location{Province: "Alberta"},
		CreatedAt:   now.Add(-2 * time.Hour),
		ExpiresAt:   now.Add(10 * time.Hour),
	}
	rctx := &core.RankContext{
		Seller: &core.SellerProfile{ID: "s1", Specialties: []string{"cattle"}},
		Now:    now,
		Params: map[string]any{"min_qty": 10},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`request.quantity > 0`, true},
		{`request.species in seller.specialties`, true},
		{`request.has_target_price && request.target_price > 100.0`, true},
		{`request.age_hours < 1.0`, false},
		{`!request.has_expiry || request.hours_to_expiry > 0.0`, true},
		{`request.quantity >= rctx.params.min_qty`, true},
		{`request.province == "Alberta" && seller.id == "s1"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := prg.Evaluate(req, rctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(`request.quantity >`)
	assert.Error(t, err)

	_, err = Compile(`1 + 2`)
	assert.Error(t, err)
}

func TestProgram_NilSeller(t *testing.T) {
	prg, err := Compile(`size(seller.specialties) == 0`)
	require.NoError(t, err)
	got, err := prg.Evaluate(&core.BuyRequest{ID: "r"}, nil)
	require.NoError(t, err)
	assert.True(t, got)
}
