// Package storage persists extracted image metadata and scan history
// in a SQLite database, so repeated reports over large collections do
// not have to re-parse every file.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"imsizer/internal/imsize"
)

// Storage handles persistence of image metadata records.
type Storage struct {
	db     *sql.DB
	dbPath string
}

// ScanRecord is one row of the scan history.
type ScanRecord struct {
	Folder       string
	ScannedAt    time.Time
	TotalImages  int
	Compressed   int64 // summed on-disk bytes
	Uncompressed int64 // summed estimated decoded bytes
}

// New opens (creating if necessary) the database at dbPath.
func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Storage{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		filetype TEXT NOT NULL,
		filesize INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		nchan INTEGER NOT NULL,
		bitdepth INTEGER NOT NULL,
		nbytes INTEGER NOT NULL,
		orientation INTEGER NOT NULL DEFAULT 0,
		uncertain INTEGER NOT NULL DEFAULT 0,
		multi_picture INTEGER NOT NULL DEFAULT 0,
		scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_images_path ON images(path);
	CREATE INDEX IF NOT EXISTS idx_images_filetype ON images(filetype);

	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL,
		scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_images INTEGER NOT NULL,
		compressed_bytes INTEGER NOT NULL,
		uncompressed_bytes INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveImages inserts or updates the given metadata records.
func (s *Storage) SaveImages(infos []*imsize.ImageInfo) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO images
			(path, filetype, filesize, width, height, nchan, bitdepth, nbytes, orientation, uncertain, multi_picture)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, info := range infos {
		_, err := stmt.Exec(
			info.FileSpec,
			info.FileType,
			info.FileSize,
			info.Width,
			info.Height,
			info.NChan,
			info.BitDepth,
			info.NBytes,
			info.Orientation,
			boolToInt(info.Uncertain),
			boolToInt(info.MultiPicture),
		)
		if err != nil {
			return fmt.Errorf("failed to insert image %s: %w", info.FileSpec, err)
		}
	}
	return tx.Commit()
}

// GetAllImages returns the stored metadata records, ordered by path.
// Only the persisted fields are populated.
func (s *Storage) GetAllImages() ([]*imsize.ImageInfo, error) {
	rows, err := s.db.Query(`
		SELECT path, filetype, filesize, width, height, nchan, bitdepth, nbytes, orientation, uncertain, multi_picture
		FROM images
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var infos []*imsize.ImageInfo
	for rows.Next() {
		info := &imsize.ImageInfo{}
		var uncertain, multiPicture int
		err := rows.Scan(
			&info.FileSpec,
			&info.FileType,
			&info.FileSize,
			&info.Width,
			&info.Height,
			&info.NChan,
			&info.BitDepth,
			&info.NBytes,
			&info.Orientation,
			&uncertain,
			&multiPicture,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		info.Uncertain = uncertain == 1
		info.MultiPicture = multiPicture == 1
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteImage removes a stored record by path.
func (s *Storage) DeleteImage(path string) error {
	_, err := s.db.Exec("DELETE FROM images WHERE path = ?", path)
	return err
}

// RecordScan appends one scan run to the history.
func (s *Storage) RecordScan(folder string, totalImages int, compressed, uncompressed int64) error {
	_, err := s.db.Exec(`
		INSERT INTO scan_history (folder, total_images, compressed_bytes, uncompressed_bytes)
		VALUES (?, ?, ?, ?)
	`, folder, totalImages, compressed, uncompressed)
	return err
}

// GetScanHistory returns past scan runs, most recent first.
func (s *Storage) GetScanHistory() ([]*ScanRecord, error) {
	rows, err := s.db.Query(`
		SELECT folder, scanned_at, total_images, compressed_bytes, uncompressed_bytes
		FROM scan_history
		ORDER BY scanned_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var records []*ScanRecord
	for rows.Next() {
		rec := &ScanRecord{}
		var scannedAt string
		if err := rows.Scan(&rec.Folder, &scannedAt, &rec.TotalImages, &rec.Compressed, &rec.Uncompressed); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.ScannedAt, _ = time.Parse("2006-01-02 15:04:05", scannedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
