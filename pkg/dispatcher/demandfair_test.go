package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemandFairRoutesToHighestDemandFirst(t *testing.T) {
	d := NewDemandFair()
	_, err := d.Subscribe(Subscriber{Ref: "a"})
	require.NoError(t, err)
	_, err = d.Subscribe(Subscriber{Ref: "b"})
	require.NoError(t, err)

	granted, err := d.Ask(2, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, granted)

	granted, err = d.Ask(5, "b")
	require.NoError(t, err)
	assert.Equal(t, 5, granted)

	plan, err := d.Dispatch([]interface{}{1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)

	assert.Equal(t, []interface{}{1, 2, 3, 4, 5}, plan.Deliveries["b"])
	assert.Equal(t, []interface{}{6, 7}, plan.Deliveries["a"])
	assert.Empty(t, plan.Undispatched)
}

func TestDemandFairLeavesExcessUndispatched(t *testing.T) {
	d := NewDemandFair()
	_, _ = d.Subscribe(Subscriber{Ref: "a"})
	_, _ = d.Ask(2, "a")

	plan, err := d.Dispatch([]interface{}{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, []interface{}{1, 2}, plan.Deliveries["a"])
	assert.Equal(t, []interface{}{3, 4}, plan.Undispatched)
}

func TestDemandFairNoSubscribersLeavesEverythingUndispatched(t *testing.T) {
	d := NewDemandFair()
	plan, err := d.Dispatch([]interface{}{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, 2, 3}, plan.Undispatched)
}

func TestDemandFairCancelRemovesSubscriber(t *testing.T) {
	d := NewDemandFair()
	_, _ = d.Subscribe(Subscriber{Ref: "a"})
	_, _ = d.Ask(10, "a")
	_, _ = d.Cancel("a")

	plan, err := d.Dispatch([]interface{}{1})
	require.NoError(t, err)
	assert.Empty(t, plan.Deliveries)
	assert.Equal(t, []interface{}{1}, plan.Undispatched)
}
