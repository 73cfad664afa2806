package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// CursorKeeper maintains the low-water mark of imported resolution dates.
type CursorKeeper struct {
	mu   sync.Mutex
	repo store.CursorRepository
}

// NewCursorKeeper returns a keeper over repo.
func NewCursorKeeper(repo store.CursorRepository) *CursorKeeper {
	return &CursorKeeper{repo: repo}
}

// UpdateDate stores date when no cursor exists yet or date is strictly
// earlier than the stored one. It reports whether the cursor moved.
func (k *CursorKeeper) UpdateDate(ctx context.Context, date time.Time) (bool, error) {
	if date.IsZero() {
		return false, nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	current, err := k.repo.Get(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return false, fmt.Errorf("load cursor: %w", err)
	case !date.Before(current.LastDate):
		return false, nil
	}
	if err := k.repo.Save(ctx, store.Cursor{ID: store.CursorID, LastDate: date}); err != nil {
		return false, fmt.Errorf("save cursor: %w", err)
	}
	return true, nil
}

// Current returns the stored cursor date; ok is false when none was saved.
func (k *CursorKeeper) Current(ctx context.Context) (date time.Time, ok bool, err error) {
	cur, err := k.repo.Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load cursor: %w", err)
	}
	return cur.LastDate, true, nil
}
