package market_test

import (
	"testing"

	"github.com/jamhan/predictmarket/market"
	"github.com/stretchr/testify/assert"
)

func TestPosition_ApplyFill_WeightedAverage(t *testing.T) {
	p := market.NewPosition("m-1", "alice", market.SideYes)

	p.ApplyFill(mustDec(t, "10"), mustDec(t, "0.40"))
	assert.True(t, p.Shares.Equal(mustDec(t, "10")))
	assert.True(t, p.AvgPrice.Equal(mustDec(t, "0.40")))

	p.ApplyFill(mustDec(t, "10"), mustDec(t, "0.60"))
	assert.True(t, p.Shares.Equal(mustDec(t, "20")))
	assert.True(t, p.AvgPrice.Equal(mustDec(t, "0.50")))
}

func TestPosition_ApplyFill_ZeroResets(t *testing.T) {
	p := market.NewPosition("m-1", "alice", market.SideNo)
	p.ApplyFill(mustDec(t, "10"), mustDec(t, "0.3"))
	p.ApplyFill(mustDec(t, "-10"), mustDec(t, "0.3"))

	assert.True(t, p.Shares.IsZero())
	assert.True(t, p.AvgPrice.IsZero())
}

func TestPosition_ApplyFill_NegativeShares(t *testing.T) {
	p := market.NewPosition("m-1", "bob", market.SideYes)
	p.ApplyFill(mustDec(t, "-5"), mustDec(t, "0.45"))

	assert.True(t, p.Shares.Equal(mustDec(t, "-5")))
	assert.True(t, p.AvgPrice.Equal(mustDec(t, "0.45")))
}
