package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/termlab/termpool/internal/pool"
)

// ErrSnapshotNotFound is returned when loading a snapshot name with no row.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// termRow is one row of the terms table plus its ordered argument ids.
type termRow struct {
	tag      string
	symbolID sql.NullInt64
	intVal   sql.NullInt64
	strVal   sql.NullString
	args     []int64
}

// LoadSnapshot rebuilds the named snapshot's term graph through the
// session. Every term is re-interned, so structurally equal subgraphs
// collapse back onto shared records regardless of how they were stored,
// and the result is protected by the session like any other creation.
func (s *Store) LoadSnapshot(ctx context.Context, name string, sess *pool.Session) (*pool.Term, error) {
	var rootID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT root_id FROM snapshots WHERE name = ?`, name).Scan(&rootID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load snapshot %q: %w", name, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	rows := make(map[int64]*termRow)
	built := make(map[int64]*pool.Term)
	symbols := make(map[int64]*pool.Symbol)

	// Children rebuild before parents, mirroring the order they were
	// written in.
	type frame struct {
		id       int64
		expanded bool
	}
	stack := []frame{{id: rootID}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if _, done := built[top.id]; done {
			stack = stack[:len(stack)-1]
			continue
		}

		row, ok := rows[top.id]
		if !ok {
			row, err = s.readTermRow(ctx, top.id)
			if err != nil {
				return nil, fmt.Errorf("load snapshot %q: %w", name, err)
			}
			rows[top.id] = row
		}

		if !top.expanded {
			top.expanded = true
			for i := len(row.args) - 1; i >= 0; i-- {
				if _, done := built[row.args[i]]; !done {
					stack = append(stack, frame{id: row.args[i]})
				}
			}
			continue
		}

		stack = stack[:len(stack)-1]

		t, err := s.buildTerm(ctx, sess, row, built, symbols)
		if err != nil {
			return nil, fmt.Errorf("load snapshot %q: %w", name, err)
		}
		built[top.id] = t
	}

	return built[rootID], nil
}

func (s *Store) readTermRow(ctx context.Context, id int64) (*termRow, error) {
	row := &termRow{}
	err := s.db.QueryRowContext(ctx,
		`SELECT tag, symbol_id, int_val, str_val FROM terms WHERE id = ?`, id).
		Scan(&row.tag, &row.symbolID, &row.intVal, &row.strVal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("term row %d missing", id)
	}
	if err != nil {
		return nil, err
	}

	args, err := s.db.QueryContext(ctx,
		`SELECT arg_id FROM term_args WHERE term_id = ? ORDER BY pos`, id)
	if err != nil {
		return nil, err
	}
	defer args.Close()
	for args.Next() {
		var argID int64
		if err := args.Scan(&argID); err != nil {
			return nil, err
		}
		row.args = append(row.args, argID)
	}
	return row, args.Err()
}

func (s *Store) buildTerm(ctx context.Context, sess *pool.Session, row *termRow, built map[int64]*pool.Term, symbols map[int64]*pool.Symbol) (*pool.Term, error) {
	switch row.tag {
	case pool.TagApplication.String():
		if !row.symbolID.Valid {
			return nil, errors.New("application row has no symbol")
		}
		sym, err := s.loadSymbol(ctx, sess, row.symbolID.Int64, symbols)
		if err != nil {
			return nil, err
		}
		args := make([]*pool.Term, len(row.args))
		for i, id := range row.args {
			args[i] = built[id]
		}
		return sess.MakeApplication(sym, args...)
	case pool.TagList.String():
		if len(row.args) != 2 {
			return nil, fmt.Errorf("list row has %d args", len(row.args))
		}
		return sess.MakeListCons(built[row.args[0]], built[row.args[1]]), nil
	case pool.TagEmptyList.String():
		return sess.EmptyList(), nil
	case pool.TagInt.String():
		return sess.MakeInt(row.intVal.Int64), nil
	case pool.TagString.String():
		return sess.MakeString(row.strVal.String), nil
	default:
		return nil, fmt.Errorf("unknown term tag %q", row.tag)
	}
}

// loadSymbol interns the symbol behind a row id once per load.
func (s *Store) loadSymbol(ctx context.Context, sess *pool.Session, id int64, cache map[int64]*pool.Symbol) (*pool.Symbol, error) {
	if sym, ok := cache[id]; ok {
		return sym, nil
	}
	var (
		name  string
		arity int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, arity FROM symbols WHERE id = ?`, id).Scan(&name, &arity)
	if err != nil {
		return nil, fmt.Errorf("symbol row %d: %w", id, err)
	}
	sym := sess.InternSymbol(name, arity)
	cache[id] = sym
	return sym, nil
}
