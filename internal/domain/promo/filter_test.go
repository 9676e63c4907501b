package promo

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFilter_NoFalseNegatives(t *testing.T) {
	f := NewCodeFilter()

	for i := range 1000 {
		f.Add("t1", fmt.Sprintf("CODE%04d", i))
	}

	for i := range 1000 {
		assert.True(t, f.MayContain("t1", fmt.Sprintf("CODE%04d", i)))
	}
}

func TestCodeFilter_CaseInsensitive(t *testing.T) {
	f := NewCodeFilter()
	f.Add("t1", "karibu10")

	assert.True(t, f.MayContain("t1", "KARIBU10"))
	assert.True(t, f.MayContain("t1", "Karibu10"))
}

func TestCodeFilter_UnknownTenantFailsOpen(t *testing.T) {
	f := NewCodeFilter()
	f.Add("t1", "KARIBU10")

	// No filter for t2 yet: report true so lookups reach the repository.
	assert.True(t, f.MayContain("t2", "ANYTHING"))
}

func TestCodeFilter_TenantIsolation(t *testing.T) {
	f := NewCodeFilter()
	f.Add("t1", "ONLYT1AA")
	f.Add("t2", "ONLYT2BB")

	assert.False(t, f.MayContain("t2", "ONLYT1AA"))
	assert.False(t, f.MayContain("t1", "ONLYT2BB"))
}

func TestCodeFilter_RewarmPicksUpNewCodes(t *testing.T) {
	repo := newPromoRepo(testCode())

	f := NewCodeFilter()
	_, err := f.Warm(context.Background(), repo)
	require.NoError(t, err)
	assert.False(t, f.MayContain("t1", "NEW20"))

	// A code ingested after the warm-up shows up on the next re-warm.
	repo.codes["t1/NEW20"] = testCode(func(c *Code) { c.ID = "c9"; c.Code = "NEW20" })

	n, err := f.Warm(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, f.MayContain("t1", "NEW20"))
	assert.True(t, f.MayContain("t1", "KARIBU10"))
}

func TestCodeFilter_Warm(t *testing.T) {
	repo := newPromoRepo(
		testCode(),
		testCode(func(c *Code) { c.ID = "c2"; c.Code = "SOKO500" }),
		testCode(func(c *Code) { c.ID = "c3"; c.TenantID = "t2"; c.Code = "JENGO5" }),
	)

	f := NewCodeFilter()
	n, err := f.Warm(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.True(t, f.MayContain("t1", "KARIBU10"))
	assert.True(t, f.MayContain("t1", "SOKO500"))
	assert.True(t, f.MayContain("t2", "JENGO5"))
	assert.False(t, f.MayContain("t1", "JENGO5"))
}
