package promo

import (
	"context"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

const (
	// filterCapacity sizes each per-tenant bloom filter. Marketing exports
	// run into the millions of codes, so the filter is sized generously.
	filterCapacity = 1_000_000
	filterFPR      = 0.001
)

// CodeFilter is a per-tenant bloom filter over known promo codes. It lets the
// validator reject definitely-unknown codes without a database round-trip.
// False positives fall through to the repository lookup; false negatives are
// impossible for added codes, so a usable code is never rejected here.
type CodeFilter struct {
	mu      sync.RWMutex
	tenants map[string]*bloom.BloomFilter
}

// NewCodeFilter creates an empty CodeFilter.
func NewCodeFilter() *CodeFilter {
	return &CodeFilter{tenants: make(map[string]*bloom.BloomFilter)}
}

// Add records a code for a tenant. Codes are normalized to upper case.
func (f *CodeFilter) Add(tenantID, code string) {
	code = strings.ToUpper(code)

	f.mu.Lock()
	defer f.mu.Unlock()

	bf, ok := f.tenants[tenantID]
	if !ok {
		bf = bloom.NewWithEstimates(filterCapacity, filterFPR)
		f.tenants[tenantID] = bf
	}
	bf.AddString(code)
}

// MayContain reports whether the code might exist for the tenant. A tenant
// with no filter yet reports true, so lookups fail open to the repository.
func (f *CodeFilter) MayContain(tenantID, code string) bool {
	f.mu.RLock()
	bf, ok := f.tenants[tenantID]
	f.mu.RUnlock()

	if !ok {
		return true
	}
	return bf.TestString(strings.ToUpper(code))
}

// Warm rebuilds the filter from every active code in the repository and
// swaps it in atomically. Called at startup and then on every refresh tick,
// so codes ingested while the server runs show up on the next re-warm; a
// failed warm-up leaves the previous contents untouched.
func (f *CodeFilter) Warm(ctx context.Context, repo Repository) (int, error) {
	codes, err := repo.ListActiveCodes(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list active codes")
	}

	tenants := make(map[string]*bloom.BloomFilter)
	for _, c := range codes {
		bf, ok := tenants[c.TenantID]
		if !ok {
			bf = bloom.NewWithEstimates(filterCapacity, filterFPR)
			tenants[c.TenantID] = bf
		}
		bf.AddString(strings.ToUpper(c.Code))
	}

	f.mu.Lock()
	f.tenants = tenants
	f.mu.Unlock()
	return len(codes), nil
}
