package db

import (
	"database/sql"
	"time"
)

// DownloadStatus represents the state of a download
type DownloadStatus string

const (
	StatusPending     DownloadStatus = "pending"
	StatusDownloading DownloadStatus = "downloading"
	StatusCompleted   DownloadStatus = "completed"
	StatusFailed      DownloadStatus = "failed"
)

// Download is one attempt to fetch a book
type Download struct {
	ID           int64
	MD5Hash      string
	Title        string
	Authors      string
	Format       string
	FileSize     int64
	Mirror       string
	DownloadURL  string
	FilePath     string
	Status       DownloadStatus
	ErrorMessage string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

const downloadColumns = `id, md5_hash, title, authors, format, file_size, mirror,
	download_url, file_path, status, error_message, verified, created_at, updated_at, completed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDownload(s scanner) (*Download, error) {
	d := &Download{}
	var authors, format, downloadURL, filePath, errMsg sql.NullString
	err := s.Scan(
		&d.ID, &d.MD5Hash, &d.Title, &authors, &format, &d.FileSize, &d.Mirror,
		&downloadURL, &filePath, &d.Status, &errMsg, &d.Verified, &d.CreatedAt, &d.UpdatedAt, &d.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Authors = authors.String
	d.Format = format.String
	d.DownloadURL = downloadURL.String
	d.FilePath = filePath.String
	d.ErrorMessage = errMsg.String
	return d, nil
}

// CreateDownload creates a new download record
func CreateDownload(d *Download) error {
	if d.Status == "" {
		d.Status = StatusPending
	}
	result, err := database.Exec(`
		INSERT INTO downloads (md5_hash, title, authors, format, file_size, mirror, download_url, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.MD5Hash, d.Title, d.Authors, d.Format, d.FileSize, d.Mirror, d.DownloadURL, d.Status,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

// GetDownload retrieves a download by ID
func GetDownload(id int64) (*Download, error) {
	return scanDownload(database.QueryRow(`SELECT `+downloadColumns+` FROM downloads WHERE id = ?`, id))
}

// GetLatestDownloadByHash retrieves the most recent download of a hash
func GetLatestDownloadByHash(hash string) (*Download, error) {
	return scanDownload(database.QueryRow(`
		SELECT `+downloadColumns+` FROM downloads
		WHERE md5_hash = ? COLLATE NOCASE
		ORDER BY id DESC LIMIT 1`, hash))
}

// ListDownloads retrieves downloads, newest first. An empty status lists
// everything when showAll is set and everything but completed otherwise.
func ListDownloads(status DownloadStatus, showAll bool) ([]*Download, error) {
	var rows *sql.Rows
	var err error

	switch {
	case status != "":
		rows, err = database.Query(`SELECT `+downloadColumns+` FROM downloads WHERE status = ? ORDER BY id DESC`, status)
	case showAll:
		rows, err = database.Query(`SELECT ` + downloadColumns + ` FROM downloads ORDER BY id DESC`)
	default:
		rows, err = database.Query(`SELECT ` + downloadColumns + ` FROM downloads WHERE status != 'completed' ORDER BY id DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []*Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

// UpdateStatus updates the download status
func UpdateStatus(id int64, status DownloadStatus, errMsg string) error {
	_, err := database.Exec(`
		UPDATE downloads SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, errMsg, id)
	return err
}

// UpdateDownloadURL records the resolved direct link
func UpdateDownloadURL(id int64, url string) error {
	_, err := database.Exec(`
		UPDATE downloads SET download_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, url, id)
	return err
}

// MarkCompleted marks a download as completed
func MarkCompleted(id int64, filePath string, size int64) error {
	_, err := database.Exec(`
		UPDATE downloads SET
			status = 'completed',
			file_path = ?,
			file_size = ?,
			error_message = NULL,
			completed_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, filePath, size, id)
	return err
}

// MarkVerified marks a download as verified
func MarkVerified(id int64, verified bool) error {
	_, err := database.Exec(`
		UPDATE downloads SET verified = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, verified, id)
	return err
}

// DeleteDownload deletes a download record
func DeleteDownload(id int64) error {
	_, err := database.Exec(`DELETE FROM downloads WHERE id = ?`, id)
	return err
}
