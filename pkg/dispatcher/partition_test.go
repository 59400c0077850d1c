package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byMod2(ev interface{}) int { return ev.(int) % 2 }

func TestPartitionRoutesByKey(t *testing.T) {
	p := NewPartition(2, byMod2)
	_, err := p.Subscribe(Subscriber{Ref: "even", Options: map[string]interface{}{"partition": 0}})
	require.NoError(t, err)
	_, err = p.Subscribe(Subscriber{Ref: "odd", Options: map[string]interface{}{"partition": 1}})
	require.NoError(t, err)

	_, _ = p.Ask(10, "even")
	_, _ = p.Ask(10, "odd")

	plan, err := p.Dispatch([]interface{}{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, []interface{}{2, 4}, plan.Deliveries["even"])
	assert.Equal(t, []interface{}{1, 3}, plan.Deliveries["odd"])
	assert.Empty(t, plan.Undispatched)
}

func TestPartitionRejectsInvalidIndex(t *testing.T) {
	p := NewPartition(2, byMod2)
	_, err := p.Subscribe(Subscriber{Ref: "x", Options: map[string]interface{}{"partition": 5}})
	assert.ErrorIs(t, err, ErrInvalidPartition)
}

func TestPartitionRejectsDoubleClaim(t *testing.T) {
	p := NewPartition(2, byMod2)
	_, err := p.Subscribe(Subscriber{Ref: "a", Options: map[string]interface{}{"partition": 0}})
	require.NoError(t, err)
	_, err = p.Subscribe(Subscriber{Ref: "b", Options: map[string]interface{}{"partition": 0}})
	assert.ErrorIs(t, err, ErrPartitionTaken)
}

func TestPartitionUnclaimedIndexLeavesEventUndispatched(t *testing.T) {
	p := NewPartition(2, byMod2)
	_, _ = p.Subscribe(Subscriber{Ref: "even", Options: map[string]interface{}{"partition": 0}})
	_, _ = p.Ask(10, "even")

	plan, err := p.Dispatch([]interface{}{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2}, plan.Deliveries["even"])
	assert.Equal(t, []interface{}{1}, plan.Undispatched)
}
