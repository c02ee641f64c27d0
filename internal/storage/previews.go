/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	applog "github.com/mklab-se/mdeck/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// DefaultPreviewCap bounds the preview database size before LRU
// eviction kicks in.
const DefaultPreviewCap = 64 * 1024 * 1024

// PreviewStore caches PNG thumbnails of rendered slides, keyed by deck
// content hash, slide index and thumbnail dimensions. The grid overview
// reads from it so re-opening a deck shows previews instantly.
type PreviewStore struct {
	db       *sql.DB
	maxBytes int64
	log      *slog.Logger
}

// OpenPreviews opens or creates the preview database at path. maxBytes
// zero applies DefaultPreviewCap; negative disables eviction.
func OpenPreviews(path string, maxBytes int64) (*PreviewStore, error) {
	l := applog.WithComponent("storage").With(slog.String("db", path))
	if maxBytes == 0 {
		maxBytes = DefaultPreviewCap
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS previews (
		deck_hash   TEXT    NOT NULL,
		slide       INTEGER NOT NULL,
		w           INTEGER NOT NULL,
		h           INTEGER NOT NULL,
		png         BLOB    NOT NULL,
		size        INTEGER NOT NULL,
		updated_at  TEXT    NOT NULL,
		last_access TEXT,
		PRIMARY KEY (deck_hash, slide, w, h)
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure previews table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create access index: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS decks (
		path       TEXT PRIMARY KEY,
		hash       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure decks table: %w", err)
	}

	l.Debug("preview store ready")
	return &PreviewStore{db: db, maxBytes: maxBytes, log: l}, nil
}

func (p *PreviewStore) Close() error { return p.db.Close() }

// Get returns the cached thumbnail, or nil when absent. A hit refreshes
// the row's access time.
func (p *PreviewStore) Get(ctx context.Context, deckHash string, slide, w, h int) ([]byte, error) {
	var blob []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT png FROM previews WHERE deck_hash=? AND slide=? AND w=? AND h=?`,
		deckHash, slide, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, _ = p.db.ExecContext(ctx,
		`UPDATE previews SET last_access=? WHERE deck_hash=? AND slide=? AND w=? AND h=?`,
		now, deckHash, slide, w, h)
	return blob, nil
}

// Put upserts a thumbnail and evicts least-recently-used rows past the
// byte cap.
func (p *PreviewStore) Put(ctx context.Context, deckHash string, slide, w, h int, png []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := p.db.ExecContext(ctx, `INSERT INTO previews(deck_hash,slide,w,h,png,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(deck_hash,slide,w,h) DO UPDATE SET png=excluded.png, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		deckHash, slide, w, h, png, len(png), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	if p.maxBytes > 0 {
		return p.evictToFit(ctx)
	}
	return nil
}

// GetOrCreate fetches a thumbnail or generates and stores it.
func (p *PreviewStore) GetOrCreate(ctx context.Context, deckHash string, slide, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := p.Get(ctx, deckHash, slide, w, h); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	data, err := gen(ctx)
	if err != nil || data == nil {
		return nil, err
	}
	if err := p.Put(ctx, deckHash, slide, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// DropDeck removes every preview of one deck version, used when the
// source file changed.
func (p *PreviewStore) DropDeck(ctx context.Context, deckHash string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM previews WHERE deck_hash=?`, deckHash); err != nil {
		return fmt.Errorf("drop deck previews: %w", err)
	}
	return nil
}

// TrackDeck records which content hash a deck path currently has.
// When the hash changed since the last session, the stale previews of
// the previous version are dropped.
func (p *PreviewStore) TrackDeck(ctx context.Context, path, hash string) error {
	var prev string
	err := p.db.QueryRowContext(ctx, `SELECT hash FROM decks WHERE path=?`, path).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query tracked deck: %w", err)
	}
	if prev != "" && prev != hash {
		if err := p.DropDeck(ctx, prev); err != nil {
			return err
		}
		p.log.Debug("dropped stale previews", slog.String("path", path))
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := p.db.ExecContext(ctx, `INSERT INTO decks(path,hash,updated_at) VALUES(?,?,?)
		ON CONFLICT(path) DO UPDATE SET hash=excluded.hash, updated_at=excluded.updated_at`,
		path, hash, now); err != nil {
		return fmt.Errorf("track deck: %w", err)
	}
	return nil
}

// evictToFit deletes oldest-accessed rows until the total size fits the
// cap; NULL access times count as oldest.
func (p *PreviewStore) evictToFit(ctx context.Context) error {
	var total int64
	if err := p.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return fmt.Errorf("sum preview size: %w", err)
	}
	if total <= p.maxBytes {
		return nil
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT rowid, size FROM previews ORDER BY last_access ASC NULLS FIRST, updated_at ASC, rowid ASC`)
	if err != nil {
		return fmt.Errorf("select eviction victims: %w", err)
	}

	var victims []int64
	for rows.Next() && total > p.maxBytes {
		var id, size int64
		if err := rows.Scan(&id, &size); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		total -= size
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// The pool holds a single connection and the open cursor owns it;
	// it must be closed before any write can run.
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}

	q := `DELETE FROM previews WHERE rowid IN (`
	args := make([]any, len(victims))
	for i, id := range victims {
		if i > 0 {
			q += ","
		}
		q += "?"
		args[i] = id
	}
	q += ")"
	if _, err := p.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("evict previews: %w", err)
	}
	p.log.Debug("evicted previews", slog.Int("count", len(victims)))
	return nil
}
