package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oreeke/twipsybot/internal/model"
)

func TestRegistryLookupAndOrder(t *testing.T) {
	r := newRegistry()
	a := &model.Channel{ID: "1", Name: "main", Params: map[string]any{}}
	b := &model.Channel{ID: "2", Name: "antenna", Params: map[string]any{"antennaId": "x"}}
	c := &model.Channel{ID: "3", Name: "antenna", Params: map[string]any{"antennaId": "y"}}
	r.add(a)
	r.add(b)
	r.add(c)

	got, ok := r.lookupID("2")
	require.True(t, ok)
	assert.Same(t, b, got)

	got, ok = r.lookupKey(model.ChannelKey("antenna", map[string]any{"antennaId": "y"}))
	require.True(t, ok)
	assert.Same(t, c, got)

	assert.Equal(t, []*model.Channel{a, b, c}, r.list(), "list preserves subscription order")
	assert.Equal(t, []*model.Channel{b, c}, r.byName("antenna"))
	assert.Equal(t, 3, r.len())
}

func TestRegistryRemove(t *testing.T) {
	r := newRegistry()
	a := &model.Channel{ID: "1", Name: "main", Params: map[string]any{}}
	b := &model.Channel{ID: "2", Name: "homeTimeline", Params: map[string]any{}}
	r.add(a)
	r.add(b)

	removed, ok := r.removeID("1")
	require.True(t, ok)
	assert.Same(t, a, removed)

	_, ok = r.lookupID("1")
	assert.False(t, ok)
	_, ok = r.lookupKey(a.Key())
	assert.False(t, ok, "removal clears the key index too")
	assert.Equal(t, []*model.Channel{b}, r.list())

	_, ok = r.removeID("1")
	assert.False(t, ok)
}

func TestRegistryClear(t *testing.T) {
	r := newRegistry()
	r.add(&model.Channel{ID: "1", Name: "main", Params: map[string]any{}})
	r.clear()
	assert.Zero(t, r.len())
	_, ok := r.lookupID("1")
	assert.False(t, ok)
}
