package promo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Validator checks whether a promo code is usable for a tenant right now and
// returns the full code record on success.
type Validator interface {
	Validate(ctx context.Context, tenantID, code string) (*Code, error)
}

// RepoValidator implements Validator by looking codes up in a Repository,
// optionally short-circuiting definite misses through a CodeFilter.
type RepoValidator struct {
	repo   Repository
	filter *CodeFilter
	now    func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
// filter may be nil, in which case every lookup goes to the repository.
func NewRepoValidator(repo Repository, filter *CodeFilter) *RepoValidator {
	return &RepoValidator{repo: repo, filter: filter, now: time.Now}
}

// Validate normalizes the code to upper case, checks the negative-lookup
// filter, fetches the record, and verifies the validity window and usage
// limit. It does not increment the usage counter; that happens once the
// checkout using the code commits.
func (v *RepoValidator) Validate(ctx context.Context, tenantID, code string) (*Code, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrNotFound
	}

	if v.filter != nil && !v.filter.MayContain(tenantID, code) {
		return nil, ErrNotFound
	}

	rec, err := v.repo.FindByCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup promo code")
	}

	now := v.now()
	if now.Before(rec.ValidFrom) {
		return nil, ErrExpired
	}
	if rec.ValidUntil != nil && now.After(*rec.ValidUntil) {
		return nil, ErrExpired
	}
	if rec.UsageLimit > 0 && rec.TimesUsed >= rec.UsageLimit {
		return nil, ErrLimitReached
	}

	return rec, nil
}
