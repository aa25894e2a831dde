package cache

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// IndexFileName is the manifest database created inside persistent cache
// directories.
const IndexFileName = ".filemap-index.db"

// Index is a persistent manifest of materialized cache entries, so a
// cache directory reused across processes can answer existence checks
// without touching the network or re-scanning an archive.
//
// Layout follows a two-layer scheme: an in-memory B-tree for fast
// (source, relpath) lookups in front of a SQLite table holding the
// durable records.
type Index struct {
	mu sync.RWMutex
	db *sql.DB

	keys *btree.Map[string, string]
}

// IndexEntry is one materialized file recorded in the manifest.
type IndexEntry struct {
	Source    string
	Relpath   string
	LocalPath string
	Size      int64
}

// OpenIndex opens (creating if necessary) the manifest inside dir and
// loads its keys into memory.
func OpenIndex(dir string) (*Index, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, IndexFileName))
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	ix := &Index{
		db:   db,
		keys: btree.NewMap[string, string](0),
	}

	if err := ix.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := ix.loadKeys(); err != nil {
		db.Close()
		return nil, err
	}

	return ix, nil
}

func (ix *Index) initSchema() error {
	_, err := ix.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			id         TEXT PRIMARY KEY,
			source     TEXT NOT NULL,
			relpath    TEXT NOT NULL,
			local_path TEXT NOT NULL,
			size       INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (source, relpath)
		)
	`)
	return err
}

func (ix *Index) loadKeys() error {
	rows, err := ix.db.Query(`SELECT source, relpath, local_path FROM cache_entries`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var source, relpath, localPath string
		if err := rows.Scan(&source, &relpath, &localPath); err != nil {
			return err
		}
		ix.keys.Set(indexKey(source, relpath), localPath)
	}

	return rows.Err()
}

func indexKey(source, relpath string) string {
	return source + "\x00" + relpath
}

// Lookup returns the recorded local path for (source, relpath). An entry
// whose backing file no longer exists is dropped and reported as absent.
func (ix *Index) Lookup(ctx context.Context, source, relpath string) (string, bool, error) {
	ix.mu.RLock()
	localPath, ok := ix.keys.Get(indexKey(source, relpath))
	ix.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	if _, err := os.Stat(localPath); err != nil {
		if err := ix.Forget(ctx, source, relpath); err != nil {
			return "", false, err
		}
		return "", false, nil
	}

	return localPath, true, nil
}

// Record inserts or replaces the manifest entry for (source, relpath).
func (ix *Index) Record(ctx context.Context, entry IndexEntry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO cache_entries (id, source, relpath, local_path, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, relpath) DO UPDATE SET
			local_path = excluded.local_path,
			size       = excluded.size,
			created_at = excluded.created_at
	`, uuid.NewString(), entry.Source, entry.Relpath, entry.LocalPath, entry.Size, time.Now().Unix())
	if err != nil {
		return err
	}

	ix.keys.Set(indexKey(entry.Source, entry.Relpath), entry.LocalPath)
	return nil
}

// Forget removes the manifest entry for (source, relpath), if present.
func (ix *Index) Forget(ctx context.Context, source, relpath string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	_, err := ix.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE source = ? AND relpath = ?`, source, relpath)
	if err != nil {
		return err
	}

	ix.keys.Delete(indexKey(source, relpath))
	return nil
}

// Len reports the number of entries currently known to the manifest.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return ix.keys.Len()
}

func (ix *Index) Close() error {
	if ix.db == nil {
		return errors.New("cache: index already closed")
	}

	err := ix.db.Close()
	ix.db = nil
	return err
}
