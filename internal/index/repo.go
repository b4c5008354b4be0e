package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/mdexport/internal/apperr"
	"github.com/starford/mdexport/internal/models"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertFile inserts or replaces a file and its outgoing links within a
// transaction. links are note names as written in the source.
func (db *DB) UpsertFile(f FileRow, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	dir := path.Dir(f.Path)
	if dir == "." {
		dir = ""
	}
	_, err = tx.Exec(`
		INSERT INTO files (path, path_lc, name_lc, dir, title, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			path_lc    = excluded.path_lc,
			name_lc    = excluded.name_lc,
			dir        = excluded.dir,
			title      = excluded.title,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, f.Path, strings.ToLower(f.Path), strings.ToLower(path.Base(f.Path)), dir, f.Title, f.Checksum, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, f.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(f.Path, linkKey(target)); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and its outgoing links.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed file keyed by path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListFiles returns indexed files under prefix ("" for all) ordered by path.
func (db *DB) ListFiles(ctx context.Context, prefix string, notesOnly bool) ([]FileRow, error) {
	q := `SELECT path, title, checksum, updated_at FROM files WHERE 1=1`
	var args []any
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		q += ` AND (path = ? OR path LIKE ? ESCAPE '\')`
		args = append(args, prefix, escapeLike(prefix)+"/%")
	}
	if notesOnly {
		q += ` AND path_lc LIKE '%.md'`
	}
	q += ` ORDER BY path`

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list files: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.Path, &f.Title, &f.Checksum, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Dependents returns the notes whose links name path, so they can be
// re-exported when path changes.
func (db *DB) Dependents(path string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM links WHERE target = ? ORDER BY source`, linkKey(path))
	if err != nil {
		return nil, fmt.Errorf("index: dependents: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LinkTarget resolves a link name as written in fromPath to a vault path.
//
// Candidates are tried in order: the name as a vault path, the name
// relative to fromPath's folder, then any file whose path ends with the
// name. Each step accepts the name with or without ".md" and compares
// case-insensitively. A tie in the last step is broken in favour of
// fromPath's folder; otherwise apperr.ErrPathAmbiguous is returned.
func (db *DB) LinkTarget(ctx context.Context, name, fromPath string) (string, error) {
	name = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, `\`, "/")), "/")
	if name == "" {
		return "", apperr.ErrNotFound
	}

	if p, err := db.exact(ctx, name); err == nil || !errors.Is(err, apperr.ErrNotFound) {
		return p, err
	}
	fromDir := path.Dir(fromPath)
	if fromDir != "." {
		if p, err := db.exact(ctx, path.Join(fromDir, name)); err == nil || !errors.Is(err, apperr.ErrNotFound) {
			return p, err
		}
	}
	return db.bySuffix(ctx, name, fromDir)
}

func (db *DB) exact(ctx context.Context, p string) (string, error) {
	lc := strings.ToLower(p)
	var found string
	err := db.conn.QueryRowContext(ctx,
		`SELECT path FROM files WHERE path_lc IN (?, ?) ORDER BY length(path) LIMIT 1`,
		lc, lc+".md").Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("index: lookup %s: %w", p, err)
	}
	return found, nil
}

func (db *DB) bySuffix(ctx context.Context, name, fromDir string) (string, error) {
	lc := strings.ToLower(name)
	base := path.Base(lc)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT path, path_lc, dir FROM files WHERE name_lc IN (?, ?)`, base, base+".md")
	if err != nil {
		return "", fmt.Errorf("index: lookup %s: %w", name, err)
	}
	defer rows.Close()

	type cand struct{ path, dir string }
	var matches []cand
	for rows.Next() {
		var p, plc, dir string
		if err := rows.Scan(&p, &plc, &dir); err != nil {
			return "", err
		}
		if hasPathSuffix(plc, lc) || hasPathSuffix(plc, lc+".md") {
			matches = append(matches, cand{p, dir})
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", apperr.ErrNotFound
	case 1:
		return matches[0].path, nil
	}
	if fromDir == "." {
		fromDir = ""
	}
	var local []string
	for _, m := range matches {
		if m.dir == fromDir {
			local = append(local, m.path)
		}
	}
	if len(local) == 1 {
		return local[0], nil
	}
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.path
	}
	sort.Strings(paths)
	return "", fmt.Errorf("index: %s matches %s: %w", name, strings.Join(paths, ", "), apperr.ErrPathAmbiguous)
}

// hasPathSuffix reports whether p ends with the whole path segments of suffix.
func hasPathSuffix(p, suffix string) bool {
	return p == suffix || strings.HasSuffix(p, "/"+suffix)
}

// linkKey normalizes a link name or vault path for dependency matching:
// lower-cased basename without ".md".
func linkKey(name string) string {
	name, _ = models.Subpath(name)
	return strings.ToLower(models.TrimNoteExt(path.Base(strings.ReplaceAll(name, `\`, "/"))))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
