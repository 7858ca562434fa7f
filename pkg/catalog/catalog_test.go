package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEmbeddedCatalog(t *testing.T) {
	all, err := List("")
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].SKU, all[i].SKU)
	}
}

func TestListFiltersCategory(t *testing.T) {
	chems, err := List("CHEMICALS")
	require.NoError(t, err)
	require.NotEmpty(t, chems)
	for _, p := range chems {
		assert.Equal(t, "chemicals", p.Category)
	}

	none, err := List("spaceships")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCategoriesAreDistinct(t *testing.T) {
	cats, err := Categories()
	require.NoError(t, err)
	assert.Contains(t, cats, "finished_leather")
	seen := map[string]bool{}
	for _, c := range cats {
		assert.False(t, seen[c])
		seen[c] = true
	}
}

func TestParseRejectsBadEntries(t *testing.T) {
	_, err := parse([]byte(`[{"sku":"A","name":"a","category":"x","unit":"piece"},{"sku":"A","name":"b","category":"x","unit":"piece"}]`))
	assert.Error(t, err)

	_, err = parse([]byte(`[{"sku":"A","name":"a","category":"x","unit":"barrel"}]`))
	assert.Error(t, err)

	_, err = parse([]byte(`{`))
	assert.Error(t, err)
}
