package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullable_Unmarshal(t *testing.T) {
	var p struct {
		GroupID Nullable[int64] `json:"groupId"`
		Other   Nullable[int64] `json:"other"`
		Cleared Nullable[int64] `json:"cleared"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"groupId": 7, "cleared": null}`), &p))

	assert.True(t, p.GroupID.Set)
	require.NotNil(t, p.GroupID.Value)
	assert.Equal(t, int64(7), *p.GroupID.Value)

	assert.False(t, p.Other.Set)

	assert.True(t, p.Cleared.Set)
	assert.Nil(t, p.Cleared.Value)
}

func TestNullable_Apply(t *testing.T) {
	one := int64(1)
	dst := &one

	assert.False(t, Nullable[int64]{}.Apply(&dst))
	assert.Equal(t, int64(1), *dst)

	assert.True(t, Some(int64(5)).Apply(&dst))
	assert.Equal(t, int64(5), *dst)

	assert.True(t, Null[int64]().Apply(&dst))
	assert.Nil(t, dst)
}

func TestEnums(t *testing.T) {
	assert.True(t, TradeOrderStatusFilled.Terminal())
	assert.False(t, TradeOrderStatusOpen.Terminal())
	assert.True(t, AssetTypeETF.Valid())
	assert.False(t, AssetType("GOLD").Valid())
	assert.False(t, TransactionStatus("").Valid())
}
