package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlans_Default(t *testing.T) {
	c, err := LoadPlans("")
	require.NoError(t, err)

	lite, ok := c.Get("lite")
	require.True(t, ok)
	assert.Equal(t, int64(999), lite.Price)
	assert.Equal(t, ".in", c.DomainSuffix("lite"))
	assert.Equal(t, ".com", c.DomainSuffix("hero"))
	assert.Equal(t, ".com", c.DomainSuffix("pro"))
	assert.Equal(t, ".com", c.DomainSuffix("unknown"))

	_, ok = c.Get(" PRO ")
	assert.True(t, ok)
}

func TestLoadPlans_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plans:
  - name: Starter
    price: 10
    domain_suffix: shop
`), 0o600))

	c, err := LoadPlans(path)
	require.NoError(t, err)
	p, ok := c.Get("starter")
	require.True(t, ok)
	assert.Equal(t, ".shop", p.DomainSuffix)
	assert.Equal(t, "starter", p.Title)
}

func TestParsePlans_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":     `plans: []`,
		"no name":   "plans:\n  - price: 5\n",
		"no price":  "plans:\n  - name: a\n",
		"duplicate": "plans:\n  - name: a\n    price: 1\n  - name: A\n    price: 2\n",
		"bad yaml":  "plans: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlans([]byte(raw))
			assert.Error(t, err)
		})
	}
}
