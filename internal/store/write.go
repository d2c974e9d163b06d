package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/termlab/termpool/internal/pool"
)

// SaveSnapshot writes the term graph reachable from root under the given
// snapshot name. Symbols are deduplicated against rows already in the
// database; terms are written once per snapshot in topological order.
// Saving over an existing name replaces the previous root.
//
// The walk uses an explicit frame stack: deep lists must not grow the
// call stack here any more than they may during marking or rendering.
func (s *Store) SaveSnapshot(ctx context.Context, name string, root *pool.Term) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer tx.Rollback()

	termIDs := make(map[*pool.Term]int64)
	symbolIDs := make(map[*pool.Symbol]int64)

	type frame struct {
		term     *pool.Term
		expanded bool
	}
	stack := []frame{{term: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if _, done := termIDs[top.term]; done {
			stack = stack[:len(stack)-1]
			continue
		}

		if !top.expanded {
			// First visit: queue unwritten children, then come back.
			top.expanded = true
			t := top.term
			for i := t.Arity() - 1; i >= 0; i-- {
				arg, err := t.Argument(i)
				if err != nil {
					return fmt.Errorf("save snapshot: %w", err)
				}
				if _, done := termIDs[arg]; !done {
					stack = append(stack, frame{term: arg})
				}
			}
			continue
		}

		t := top.term
		stack = stack[:len(stack)-1]

		id, err := writeTerm(ctx, tx, t, termIDs, symbolIDs)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		termIDs[t] = id
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (name, root_id) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET root_id = excluded.root_id, created_at = datetime('now')
	`, name, termIDs[root])
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// writeTerm inserts one term row; its children are already present in
// termIDs.
func writeTerm(ctx context.Context, tx *sql.Tx, t *pool.Term, termIDs map[*pool.Term]int64, symbolIDs map[*pool.Symbol]int64) (int64, error) {
	var (
		symbolID any
		intVal   any
		strVal   any
	)

	switch t.Tag() {
	case pool.TagApplication:
		id, err := internSymbolRow(ctx, tx, t.Symbol(), symbolIDs)
		if err != nil {
			return 0, err
		}
		symbolID = id
	case pool.TagInt:
		intVal = t.Int()
	case pool.TagString:
		strVal = t.Text()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO terms (tag, symbol_id, int_val, str_val) VALUES (?, ?, ?, ?)`,
		t.Tag().String(), symbolID, intVal, strVal)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i := 0; i < t.Arity(); i++ {
		arg, err := t.Argument(i)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO term_args (term_id, pos, arg_id) VALUES (?, ?, ?)`,
			id, i, termIDs[arg]); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// internSymbolRow returns the row id for the symbol, inserting it if the
// database does not have it yet.
func internSymbolRow(ctx context.Context, tx *sql.Tx, sym *pool.Symbol, cache map[*pool.Symbol]int64) (int64, error) {
	if id, ok := cache[sym]; ok {
		return id, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO symbols (name, arity) VALUES (?, ?) ON CONFLICT(name, arity) DO NOTHING`,
		sym.Name(), sym.Arity()); err != nil {
		return 0, err
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM symbols WHERE name = ? AND arity = ?`,
		sym.Name(), sym.Arity()).Scan(&id)
	if err != nil {
		return 0, err
	}

	cache[sym] = id
	return id, nil
}
