package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	staticsite "github.com/lex00/wetwire-staticsite-go"
)

func TestOrder(t *testing.T) {
	resources := map[string]staticsite.DiscoveredResource{
		"SiteBucket":           {Name: "SiteBucket"},
		"OriginAccessIdentity": {Name: "OriginAccessIdentity"},
		"SiteBucketPolicy": {
			Name:         "SiteBucketPolicy",
			Dependencies: []string{"OriginAccessIdentity", "SiteBucket"},
		},
		"Distribution": {
			Name:         "Distribution",
			Dependencies: []string{"OriginAccessIdentity", "SiteBucket"},
		},
	}

	order, err := Order(resources)
	require.NoError(t, err)

	assert.Equal(t, []string{"OriginAccessIdentity", "SiteBucket", "Distribution", "SiteBucketPolicy"}, order)
}

func TestOrder_IgnoresUndeclared(t *testing.T) {
	resources := map[string]staticsite.DiscoveredResource{
		"SiteBucketPolicy": {Name: "SiteBucketPolicy", Dependencies: []string{"SiteBucket"}},
	}

	order, err := Order(resources)
	require.NoError(t, err)
	assert.Equal(t, []string{"SiteBucketPolicy"}, order)
}

func TestOrder_Cycle(t *testing.T) {
	resources := map[string]staticsite.DiscoveredResource{
		"A": {Name: "A", File: "a.go", Line: 1, Dependencies: []string{"B"}},
		"B": {Name: "B", File: "b.go", Line: 2, Dependencies: []string{"A"}},
		"C": {Name: "C"},
	}

	_, err := Order(resources)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "A (a.go:1)")
	assert.Contains(t, err.Error(), "B (b.go:2)")
}

func TestOrder_CycleWithLeadIn(t *testing.T) {
	resources := map[string]staticsite.DiscoveredResource{
		"A": {Name: "A", File: "a.go", Line: 1, Dependencies: []string{"B"}},
		"B": {Name: "B", File: "b.go", Line: 2, Dependencies: []string{"C"}},
		"C": {Name: "C", File: "c.go", Line: 3, Dependencies: []string{"B"}},
	}

	_, err := Order(resources)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)

	msg := err.Error()
	assert.NotContains(t, msg, "A (a.go:1)")
	assert.Equal(t, 2, strings.Count(msg, "B (b.go:2)"), "cycle closes on B")
	assert.Equal(t, 1, strings.Count(msg, "C (c.go:3)"))
	assert.Less(t, strings.Index(msg, "B (b.go:2)"), strings.Index(msg, "C (c.go:3)"))
}

func TestDetectCycle_Path(t *testing.T) {
	resources := map[string]staticsite.DiscoveredResource{
		"A": {Name: "A", Dependencies: []string{"B"}},
		"B": {Name: "B", Dependencies: []string{"C"}},
		"C": {Name: "C", Dependencies: []string{"B"}},
	}

	err := detectCycle(resources)
	require.Error(t, err)
	assert.Equal(t, "circular dependency detected:\n  B (:0)\n    → C (:0)\n    → B (:0)", err.Error())
}

func TestOrder_Empty(t *testing.T) {
	order, err := Order(nil)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestReverse(t *testing.T) {
	assert.Equal(t, []string{"c", "b", "a"}, Reverse([]string{"a", "b", "c"}))
	assert.Empty(t, Reverse(nil))
}
