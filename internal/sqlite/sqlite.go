// Package sqlite persists an emitted operation log into a relational
// snapshot using the pure Go modernc.org/sqlite driver.
//
// The snapshot mirrors the four event kinds: nodes, node annotations,
// edges, and edge annotations each get a table. Applying a log is
// transactional, so a failed run leaves an existing database untouched.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
)

const driverName = "sqlite"

const ddl = `
CREATE TABLE IF NOT EXISTS node (
	name      TEXT PRIMARY KEY,
	node_type TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS node_annotation (
	node      TEXT NOT NULL,
	namespace TEXT NOT NULL,
	name      TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (node, namespace, name)
);
CREATE TABLE IF NOT EXISTS edge (
	source         TEXT NOT NULL,
	target         TEXT NOT NULL,
	layer          TEXT NOT NULL,
	component_type TEXT NOT NULL,
	component_name TEXT NOT NULL,
	PRIMARY KEY (source, target, layer, component_type, component_name)
);
CREATE TABLE IF NOT EXISTS edge_annotation (
	source         TEXT NOT NULL,
	target         TEXT NOT NULL,
	layer          TEXT NOT NULL,
	component_type TEXT NOT NULL,
	component_name TEXT NOT NULL,
	namespace      TEXT NOT NULL,
	name           TEXT NOT NULL,
	value          TEXT NOT NULL,
	PRIMARY KEY (source, target, layer, component_type, component_name, namespace, name)
);
`

// Store writes operation logs to a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", path)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating schema in %s", path)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Apply writes every event of the log in one transaction. Replayed events
// are upserted, so applying the same log twice is idempotent.
func (s *Store) Apply(ctx context.Context, u *graph.Update) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := applyEvents(ctx, tx, u.Events()); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing operation log")
}

func applyEvents(ctx context.Context, tx *sql.Tx, events []graph.Event) error {
	stmts := map[graph.EventKind]string{
		graph.EventAddNode: `INSERT INTO node (name, node_type) VALUES (?, ?)
			ON CONFLICT (name) DO UPDATE SET node_type = excluded.node_type`,
		graph.EventAddNodeLabel: `INSERT INTO node_annotation (node, namespace, name, value) VALUES (?, ?, ?, ?)
			ON CONFLICT (node, namespace, name) DO UPDATE SET value = excluded.value`,
		graph.EventAddEdge: `INSERT INTO edge (source, target, layer, component_type, component_name) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`,
		graph.EventAddEdgeLabel: `INSERT INTO edge_annotation (source, target, layer, component_type, component_name, namespace, name, value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (source, target, layer, component_type, component_name, namespace, name) DO UPDATE SET value = excluded.value`,
	}
	prepared := make(map[graph.EventKind]*sql.Stmt, len(stmts))
	defer func() {
		for _, stmt := range prepared {
			stmt.Close()
		}
	}()
	for kind, query := range stmts {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return errors.Wrapf(err, "preparing %s statement", kind)
		}
		prepared[kind] = stmt
	}

	for _, ev := range events {
		var err error
		switch ev.Kind {
		case graph.EventAddNode:
			_, err = prepared[ev.Kind].ExecContext(ctx, ev.Node, ev.NodeType)
		case graph.EventAddNodeLabel:
			_, err = prepared[ev.Kind].ExecContext(ctx, ev.Node, ev.Namespace, ev.Name, ev.Value)
		case graph.EventAddEdge:
			_, err = prepared[ev.Kind].ExecContext(ctx,
				ev.Source, ev.Target, ev.Layer, string(ev.Component), ev.ComponentName)
		case graph.EventAddEdgeLabel:
			_, err = prepared[ev.Kind].ExecContext(ctx,
				ev.Source, ev.Target, ev.Layer, string(ev.Component), ev.ComponentName,
				ev.Namespace, ev.Name, ev.Value)
		}
		if err != nil {
			return errors.Wrapf(err, "applying %s event", ev.Kind)
		}
	}
	return nil
}
