// Package stubdb persists stub declarations in an SQLite index so large
// stub sets are parsed once and reused while the stub files are unchanged.
//
// The index is itself a typeobject.AncestorSource; ancestor closure is
// computed in SQL with a recursive query.
package stubdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/funvibe/typeobj/internal/stubs"
	"github.com/funvibe/typeobj/internal/typeobject"
)

// schemaVersion is bumped when the table layout changes so existing
// indexes are rebuilt.
const schemaVersion = "v1"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS types (
	name     TEXT PRIMARY KEY,
	protocol INTEGER NOT NULL DEFAULT 0,
	origin   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS bases (
	type     TEXT NOT NULL,
	position INTEGER NOT NULL,
	base     TEXT NOT NULL,
	PRIMARY KEY (type, position)
);
CREATE TABLE IF NOT EXISTS attributes (
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (type, name)
);
CREATE INDEX IF NOT EXISTS bases_by_type ON bases(type);
`

// Index is an open stub index.
type Index struct {
	db       *sql.DB
	path     string
	resolver typeobject.KeyResolver
	logger   *log.Logger
	verbose  bool
}

// Option configures an Index.
type Option func(*Index)

// WithResolver maps stored names to keys. Defaults to
// typeobject.SyntheticOnly.
func WithResolver(r typeobject.KeyResolver) Option {
	return func(ix *Index) {
		if r != nil {
			ix.resolver = r
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

func WithVerbose(v bool) Option {
	return func(ix *Index) { ix.verbose = v }
}

// Open opens (creating if needed) the index at path. Use ":memory:" for a
// private in-memory index.
func Open(ctx context.Context, path string, opts ...Option) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening stub index %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing stub index %s: %w", path, err)
	}
	ix := &Index{
		db:       db,
		path:     path,
		resolver: typeobject.SyntheticOnly,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

func (ix *Index) Path() string { return ix.path }

func (ix *Index) debugf(format string, args ...any) {
	if ix.verbose {
		ix.logger.Printf("[stubdb] "+format, args...)
	}
}

// Fingerprint returns the fingerprint recorded by the last Import, or ""
// for a fresh index.
func (ix *Index) Fingerprint(ctx context.Context) (string, error) {
	var fp string
	err := ix.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'fingerprint'`).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading fingerprint: %w", err)
	}
	return fp, nil
}

// Len returns the number of indexed types.
func (ix *Index) Len(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM types`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting types: %w", err)
	}
	return n, nil
}

// Import replaces the index contents with the declarations of repo and
// records fingerprint, all in one transaction.
func (ix *Index) Import(ctx context.Context, repo *stubs.Repository, fingerprint string) (err error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting import: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"types", "bases", "attributes", "meta"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	insType, err := tx.PrepareContext(ctx, `INSERT INTO types (name, protocol, origin) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insType.Close()
	insBase, err := tx.PrepareContext(ctx, `INSERT INTO bases (type, position, base) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insBase.Close()
	insAttr, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO attributes (type, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer insAttr.Close()

	for _, d := range repo.Decls() {
		if _, err = insType.ExecContext(ctx, d.Name, d.Protocol, d.Origin); err != nil {
			return fmt.Errorf("indexing %s: %w", d.Name, err)
		}
		for i, b := range d.Bases {
			if _, err = insBase.ExecContext(ctx, d.Name, i, b); err != nil {
				return fmt.Errorf("indexing %s: base %s: %w", d.Name, b, err)
			}
		}
		for _, a := range d.Attributes {
			if _, err = insAttr.ExecContext(ctx, d.Name, a); err != nil {
				return fmt.Errorf("indexing %s: attribute %s: %w", d.Name, a, err)
			}
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('fingerprint', ?)`, fingerprint); err != nil {
		return fmt.Errorf("recording fingerprint: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	ix.debugf("indexed %d types into %s", repo.Len(), ix.path)
	return nil
}

// Fingerprint hashes the stub files in order. Trailing whitespace is
// ignored so cosmetic edits don't force a rebuild.
func Fingerprint(paths []string) (string, error) {
	h := sha256.New()
	h.Write([]byte(schemaVersion))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", p, err)
		}
		h.Write([]byte("\x00"))
		h.Write([]byte(p))
		h.Write([]byte("\x00"))
		h.Write(normalize(data))
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

func normalize(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(strings.TrimRight(line, " \t\r"))
		sb.WriteString("\n")
	}
	return []byte(strings.TrimRight(sb.String(), "\n"))
}

// Sync opens the index at path and makes sure it reflects stubFiles. The
// files are only parsed when their fingerprint differs from the recorded
// one. Reports whether the index was rebuilt.
func Sync(ctx context.Context, path string, stubFiles []string, opts ...Option) (*Index, bool, error) {
	fp, err := Fingerprint(stubFiles)
	if err != nil {
		return nil, false, err
	}
	ix, err := Open(ctx, path, opts...)
	if err != nil {
		return nil, false, err
	}
	have, err := ix.Fingerprint(ctx)
	if err != nil {
		ix.Close()
		return nil, false, err
	}
	if have == fp {
		ix.debugf("index %s is up to date (%s)", path, fp)
		return ix, false, nil
	}

	ix.debugf("index %s is stale, rebuilding", path)
	repo, err := stubs.LoadFiles(ctx, stubFiles)
	if err != nil {
		ix.Close()
		return nil, false, err
	}
	if err := ix.Import(ctx, repo, fp); err != nil {
		ix.Close()
		return nil, false, err
	}
	return ix, true, nil
}
