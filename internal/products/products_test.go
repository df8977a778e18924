package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, c.List(""))
}

func TestListByCategory(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	all := c.List("")
	bundles := c.List("bundles")
	require.NotEmpty(t, bundles)
	assert.Less(t, len(bundles), len(all))
	for _, p := range bundles {
		assert.Equal(t, "bundles", p.Category)
	}

	assert.Empty(t, c.List("no-such-category"))
}

func TestListReturnsCopy(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	first := c.List("")
	first[0].Price = -999
	assert.NotEqual(t, float64(-999), c.List("")[0].Price)
}

func TestGet(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	p, ok := c.Get("Starter Bundle")
	require.True(t, ok)
	assert.Equal(t, 10.0, p.Price)

	_, ok = c.Get("starter bundle")
	assert.False(t, ok, "lookup is exact, not case-folded")
}
