// Package vault is a local library of named flag snapshots backed by SQLite.
//
// The game's own storage is a single volatile slot; the vault lets a user
// keep as many flags as they like and swap them in and out. Snapshot rows
// reference content-addressed blob rows keyed by the BLAKE3-256 hash of the
// encoded BMP bytes, so saving the same flag under two names stores the
// pixel data once. Blob data is XZ-compressed at rest.
//
// The default build uses the pure Go modernc.org/sqlite driver; the
// cgo_sqlite build tag switches to mattn/go-sqlite3.
package vault

import (
	"bytes"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/SamJakob/MageArenaFlagEditor/core/bitmap"
	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	hash     TEXT PRIMARY KEY,
	data     BLOB NOT NULL,
	raw_size INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	blob_hash  TEXT NOT NULL REFERENCES blobs(hash),
	created_at TEXT NOT NULL
);
`

// Snapshot describes one saved flag.
type Snapshot struct {
	ID        string
	Name      string
	Width     int
	Height    int
	BlobHash  string
	RawSize   int64
	CreatedAt time.Time
}

// Vault is an open snapshot library.
type Vault struct {
	db *sql.DB
}

// DriverType reports which SQLite implementation this build uses:
// "purego" for modernc.org/sqlite, "cgo" for mattn/go-sqlite3.
func DriverType() string {
	return driverType
}

// Open opens (or creates) a vault database at path.
func Open(path string) (*Vault, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewAccess("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewAccess("initialize", path, err)
	}
	return &Vault{db: db}, nil
}

// Close releases the underlying database.
func (v *Vault) Close() error {
	return v.db.Close()
}

// compress XZ-compresses the encoded BMP bytes for storage.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize blob: %w", err)
	}
	return buf.Bytes(), nil
}

// decompress reverses compress.
func decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	return io.ReadAll(r)
}

// Save stores img under name, replacing any existing snapshot with that
// name. Identical pixel data dedupes to a single blob row.
func (v *Vault) Save(name string, img *bitmap.Image[bitmap.RGB24]) (Snapshot, error) {
	if name == "" {
		return Snapshot{}, errors.NewIllegal("name", "snapshot name must not be empty")
	}

	encoded := img.Encode()
	sum := blake3.Sum256(encoded)
	hash := hex.EncodeToString(sum[:])

	compressed, err := compress(encoded)
	if err != nil {
		return Snapshot{}, err
	}

	tx, err := v.db.Begin()
	if err != nil {
		return Snapshot{}, errors.NewAccess("begin transaction", "vault", err)
	}
	defer tx.Rollback()

	// The hash is derived from the content, so an existing row is already
	// correct and the insert can be skipped.
	if _, err := tx.Exec(
		`INSERT INTO blobs (hash, data, raw_size) VALUES (?, ?, ?)
		 ON CONFLICT(hash) DO NOTHING`,
		hash, compressed, int64(len(encoded)),
	); err != nil {
		return Snapshot{}, errors.NewAccess("store blob", "vault", err)
	}

	// Remember the hash the replaced snapshot pointed at so its blob can be
	// collected if this save orphaned it.
	var oldHash sql.NullString
	if err := tx.QueryRow(`SELECT blob_hash FROM snapshots WHERE name = ?`, name).Scan(&oldHash); err != nil && err != sql.ErrNoRows {
		return Snapshot{}, errors.NewAccess("query snapshot", "vault", err)
	}

	snap := Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Width:     img.Width(),
		Height:    img.Height(),
		BlobHash:  hash,
		RawSize:   int64(len(encoded)),
		CreatedAt: time.Now().UTC(),
	}

	if _, err := tx.Exec(
		`INSERT INTO snapshots (id, name, width, height, blob_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   id = excluded.id, width = excluded.width, height = excluded.height,
		   blob_hash = excluded.blob_hash, created_at = excluded.created_at`,
		snap.ID, snap.Name, snap.Width, snap.Height, snap.BlobHash,
		snap.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return Snapshot{}, errors.NewAccess("store snapshot", "vault", err)
	}

	if oldHash.Valid && oldHash.String != hash {
		if err := collectBlob(tx, oldHash.String); err != nil {
			return Snapshot{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, errors.NewAccess("commit", "vault", err)
	}
	return snap, nil
}

// collectBlob removes a blob row if no snapshot references it anymore.
func collectBlob(tx *sql.Tx, hash string) error {
	var refs int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE blob_hash = ?`, hash).Scan(&refs); err != nil {
		return errors.NewAccess("count blob references", "vault", err)
	}
	if refs == 0 {
		if _, err := tx.Exec(`DELETE FROM blobs WHERE hash = ?`, hash); err != nil {
			return errors.NewAccess("collect blob", "vault", err)
		}
	}
	return nil
}

// Load decodes the snapshot stored under name back into an image. The blob
// is verified against its recorded hash before decoding.
func (v *Vault) Load(name string) (*bitmap.Image[bitmap.RGB24], error) {
	var hash string
	var compressed []byte
	err := v.db.QueryRow(
		`SELECT b.hash, b.data FROM snapshots s JOIN blobs b ON s.blob_hash = b.hash
		 WHERE s.name = ?`, name,
	).Scan(&hash, &compressed)
	if err == sql.ErrNoRows {
		return nil, errors.NewAccess("find", fmt.Sprintf("snapshot %q", name), nil)
	}
	if err != nil {
		return nil, errors.NewAccess("query snapshot", "vault", err)
	}

	encoded, err := decompress(compressed)
	if err != nil {
		return nil, errors.NewValue(fmt.Sprintf("snapshot %q", name), err.Error())
	}

	sum := blake3.Sum256(encoded)
	if hex.EncodeToString(sum[:]) != hash {
		return nil, errors.NewValue(fmt.Sprintf("snapshot %q", name), "stored blob does not match its recorded hash")
	}

	return bitmap.Decode(encoded)
}

// List returns every snapshot, newest first.
func (v *Vault) List() ([]Snapshot, error) {
	rows, err := v.db.Query(
		`SELECT s.id, s.name, s.width, s.height, s.blob_hash, b.raw_size, s.created_at
		 FROM snapshots s JOIN blobs b ON s.blob_hash = b.hash
		 ORDER BY s.created_at DESC, s.name`)
	if err != nil {
		return nil, errors.NewAccess("list snapshots", "vault", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var created string
		if err := rows.Scan(&s.ID, &s.Name, &s.Width, &s.Height, &s.BlobHash, &s.RawSize, &created); err != nil {
			return nil, errors.NewAccess("scan snapshot", "vault", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			s.CreatedAt = t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Info returns the snapshot stored under name without loading its pixels.
func (v *Vault) Info(name string) (Snapshot, error) {
	var s Snapshot
	var created string
	err := v.db.QueryRow(
		`SELECT s.id, s.name, s.width, s.height, s.blob_hash, b.raw_size, s.created_at
		 FROM snapshots s JOIN blobs b ON s.blob_hash = b.hash
		 WHERE s.name = ?`, name,
	).Scan(&s.ID, &s.Name, &s.Width, &s.Height, &s.BlobHash, &s.RawSize, &created)
	if err == sql.ErrNoRows {
		return Snapshot{}, errors.NewAccess("find", fmt.Sprintf("snapshot %q", name), nil)
	}
	if err != nil {
		return Snapshot{}, errors.NewAccess("query snapshot", "vault", err)
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		s.CreatedAt = t
	}
	return s, nil
}

// Delete removes the snapshot stored under name, collecting its blob when
// it was the last reference.
func (v *Vault) Delete(name string) error {
	tx, err := v.db.Begin()
	if err != nil {
		return errors.NewAccess("begin transaction", "vault", err)
	}
	defer tx.Rollback()

	var hash string
	err = tx.QueryRow(`SELECT blob_hash FROM snapshots WHERE name = ?`, name).Scan(&hash)
	if err == sql.ErrNoRows {
		return errors.NewAccess("find", fmt.Sprintf("snapshot %q", name), nil)
	}
	if err != nil {
		return errors.NewAccess("query snapshot", "vault", err)
	}

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return errors.NewAccess("delete snapshot", "vault", err)
	}
	if err := collectBlob(tx, hash); err != nil {
		return err
	}
	return tx.Commit()
}
