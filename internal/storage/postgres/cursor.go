package postgres

import (
	"context"

	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// Cursor implements store.CursorRepository.
type Cursor struct {
	db DB
}

// Get implements store.CursorRepository.
func (c *Cursor) Get(ctx context.Context) (store.Cursor, error) {
	var cur store.Cursor
	err := c.db.QueryRow(ctx, `SELECT id, last_date FROM cursors WHERE id = $1`, store.CursorID).
		Scan(&cur.ID, &cur.LastDate)
	if err != nil {
		return store.Cursor{}, mapErr("get cursor", err)
	}
	return cur, nil
}

// Save implements store.CursorRepository.
func (c *Cursor) Save(ctx context.Context, cur store.Cursor) error {
	_, err := c.db.Exec(ctx, `
INSERT INTO cursors (id, last_date) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET last_date = LEAST(cursors.last_date, EXCLUDED.last_date)`, store.CursorID, cur.LastDate)
	if err != nil {
		return mapErr("save cursor", err)
	}
	return nil
}
