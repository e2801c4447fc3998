package catalog

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/mogaika/hsf_browser/hsf"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	size       INTEGER NOT NULL,
	nodes      INTEGER NOT NULL,
	meshes     INTEGER NOT NULL,
	textures   INTEGER NOT NULL,
	root       INTEGER NOT NULL,
	parsed     INTEGER NOT NULL,
	failed     INTEGER NOT NULL,
	summary    TEXT NOT NULL,
	error      TEXT NOT NULL,
	decoded_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS textures (
	file   TEXT NOT NULL,
	idx    INTEGER NOT NULL,
	name   TEXT NOT NULL,
	width  INTEGER NOT NULL,
	height INTEGER NOT NULL,
	format TEXT NOT NULL,
	error  TEXT NOT NULL,
	PRIMARY KEY (file, idx)
);
CREATE TABLE IF NOT EXISTS warnings (
	file    TEXT NOT NULL,
	kind    TEXT NOT NULL,
	section TEXT NOT NULL,
	item    INTEGER NOT NULL,
	ofs     INTEGER NOT NULL,
	message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS warnings_file ON warnings (file);
`

// Catalog stores decode results of many files in sqlite database
type Catalog struct {
	db *sql.DB
}

type FileEntry struct {
	Path      string
	Size      int64
	Nodes     int
	Meshes    int
	Textures  int
	Root      int
	Parsed    int
	Failed    int
	Summary   string
	Error     string `json:",omitempty"`
	DecodedAt time.Time
}

type TextureEntry struct {
	File   string
	Index  int
	Name   string
	Width  int
	Height int
	Format string
	Error  string `json:",omitempty"`
}

type WarningEntry struct {
	File    string
	Kind    string
	Section string
	Item    int
	Offset  int
	Message string
}

func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	// writers are serialized by sqlite anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "set WAL mode")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "create schema")
	}
	log.Printf("[catalog] opened %s", path)
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record replaces everything known about file with result of its decode.
// scene is nil when file could not be decoded at all.
func (c *Catalog) Record(ctx context.Context, path string, size int64, scene *hsf.Scene, decodeErr error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "begin")
	}
	defer tx.Rollback()

	for _, table := range []string{"files", "textures", "warnings"} {
		column := "file"
		if table == "files" {
			column = "path"
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+column+" = ?", path); err != nil {
			return errors.Wrapf(err, "clear %s of %q", table, path)
		}
	}

	entry := FileEntry{Path: path, Size: size, Root: -1, DecodedAt: time.Now()}
	if decodeErr != nil {
		entry.Error = decodeErr.Error()
	}
	if scene != nil {
		entry.Nodes = len(scene.Nodes)
		entry.Meshes = len(scene.MeshNodes())
		entry.Textures = len(scene.Textures)
		entry.Root = scene.RootIndex
		entry.Parsed = scene.Report.Parsed()
		entry.Failed = scene.Report.Failed()
		entry.Summary = scene.Report.Summary()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO files (path, size, nodes, meshes, textures, root, parsed, failed, summary, error, decoded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Path, entry.Size, entry.Nodes, entry.Meshes, entry.Textures, entry.Root,
		entry.Parsed, entry.Failed, entry.Summary, entry.Error, entry.DecodedAt.Unix())
	if err != nil {
		return errors.Wrapf(err, "insert file %q", path)
	}

	if scene != nil {
		for _, t := range scene.Textures {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO textures (file, idx, name, width, height, format, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
				path, t.Index, t.Name, t.Width, t.Height, t.Format.String(), t.Error)
			if err != nil {
				return errors.Wrapf(err, "insert texture %d of %q", t.Index, path)
			}
		}
		for _, w := range scene.Report.Warnings {
			msg := ""
			if w.Err != nil {
				msg = w.Err.Error()
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO warnings (file, kind, section, item, ofs, message) VALUES (?, ?, ?, ?, ?, ?)",
				path, w.Kind.String(), w.Section, w.Item, w.Offset, msg)
			if err != nil {
				return errors.Wrapf(err, "insert warning of %q", path)
			}
		}
	}
	return errors.Wrapf(tx.Commit(), "commit %q", path)
}

func (c *Catalog) Files(ctx context.Context) ([]FileEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT path, size, nodes, meshes, textures, root, parsed, failed, summary, error, decoded_at
		FROM files ORDER BY path`)
	if err != nil {
		return nil, errors.Wrapf(err, "query files")
	}
	defer rows.Close()

	result := make([]FileEntry, 0)
	for rows.Next() {
		var e FileEntry
		var decodedAt int64
		if err := rows.Scan(&e.Path, &e.Size, &e.Nodes, &e.Meshes, &e.Textures, &e.Root,
			&e.Parsed, &e.Failed, &e.Summary, &e.Error, &decodedAt); err != nil {
			return nil, errors.Wrapf(err, "scan file")
		}
		e.DecodedAt = time.Unix(decodedAt, 0)
		result = append(result, e)
	}
	return result, rows.Err()
}

func (c *Catalog) Textures(ctx context.Context, file string) ([]TextureEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT file, idx, name, width, height, format, error FROM textures WHERE file = ? ORDER BY idx", file)
	if err != nil {
		return nil, errors.Wrapf(err, "query textures of %q", file)
	}
	defer rows.Close()

	result := make([]TextureEntry, 0)
	for rows.Next() {
		var e TextureEntry
		if err := rows.Scan(&e.File, &e.Index, &e.Name, &e.Width, &e.Height, &e.Format, &e.Error); err != nil {
			return nil, errors.Wrapf(err, "scan texture")
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (c *Catalog) Warnings(ctx context.Context, file string) ([]WarningEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT file, kind, section, item, ofs, message FROM warnings WHERE file = ? ORDER BY rowid", file)
	if err != nil {
		return nil, errors.Wrapf(err, "query warnings of %q", file)
	}
	defer rows.Close()

	result := make([]WarningEntry, 0)
	for rows.Next() {
		var e WarningEntry
		if err := rows.Scan(&e.File, &e.Kind, &e.Section, &e.Item, &e.Offset, &e.Message); err != nil {
			return nil, errors.Wrapf(err, "scan warning")
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
