package dashboard

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/dqninh/classclash/internal/domain"
)

// FilterAll shows records for every grade.
const FilterAll = "all"

// Store is the score persistence boundary the view reads from and deletes
// against.
type Store interface {
	Leaderboard(ctx context.Context) ([]domain.ScoreRecord, error)
	DeleteScore(ctx context.Context, id int64) error
}

// View holds the last-fetched leaderboard and a grade filter. Filtering is a
// local predicate over the cached list; only Refresh and Delete talk to the
// store.
type View struct {
	store Store

	mu      sync.RWMutex
	records []domain.ScoreRecord
	filter  string
}

func NewView(store Store) *View {
	return &View{
		store:  store,
		filter: FilterAll,
	}
}

// Refresh replaces the cached list with the store's authoritative contents.
func (v *View) Refresh(ctx context.Context) error {
	records, err := v.store.Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("refresh leaderboard: %w", err)
	}

	v.mu.Lock()
	v.records = records
	v.mu.Unlock()
	return nil
}

// SetFilter selects either FilterAll or a single grade.
func (v *View) SetFilter(filter string) {
	if filter != FilterAll && !domain.ValidGrade(filter) {
		filter = FilterAll
	}

	v.mu.Lock()
	v.filter = filter
	v.mu.Unlock()
}

func (v *View) Filter() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Records returns the cached records matching the current filter.
func (v *View) Records() []domain.ScoreRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]domain.ScoreRecord, 0, len(v.records))
	for _, rec := range v.records {
		if v.filter == FilterAll || rec.Grade == v.filter {
			out = append(out, rec)
		}
	}
	return out
}

// Delete removes the record locally, then asks the store to delete it, and
// refreshes from the store regardless of the outcome. The view never stays on
// the optimistic state: after Delete returns, the cache mirrors the store (or
// an error reports that even the reconciling fetch failed).
func (v *View) Delete(ctx context.Context, id int64) error {
	v.mu.Lock()
	kept := v.records[:0:0]
	for _, rec := range v.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	v.records = kept
	v.mu.Unlock()

	delErr := v.store.DeleteScore(ctx, id)
	if delErr != nil {
		delErr = fmt.Errorf("delete score %d: %w", id, delErr)
	}

	return stderrors.Join(delErr, v.Refresh(ctx))
}
