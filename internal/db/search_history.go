package db

import (
	"encoding/json"
	"strings"
	"time"
)

// SearchHistory is one search that was run against a mirror
type SearchHistory struct {
	ID          int64
	Title       string
	Authors     []string
	SearchType  string
	Mirror      string
	ResultCount int
	CreatedAt   time.Time
}

// Query returns the free text of the search
func (h *SearchHistory) Query() string {
	return strings.TrimSpace(h.Title + " " + strings.Join(h.Authors, ", "))
}

// AddSearchHistory adds a search to history
func AddSearchHistory(h *SearchHistory) error {
	authorsJSON, err := json.Marshal(h.Authors)
	if err != nil || h.Authors == nil {
		authorsJSON = []byte("[]")
	}

	result, err := database.Exec(`
		INSERT INTO search_history (title, authors, search_type, mirror, result_count)
		VALUES (?, ?, ?, ?, ?)`,
		h.Title, string(authorsJSON), h.SearchType, h.Mirror, h.ResultCount,
	)
	if err != nil {
		return err
	}
	h.ID, err = result.LastInsertId()
	return err
}

// GetSearchHistory retrieves recent search history
func GetSearchHistory(limit int) ([]*SearchHistory, error) {
	return querySearchHistory(`
		SELECT id, title, authors, search_type, mirror, result_count, created_at
		FROM search_history
		ORDER BY id DESC
		LIMIT ?`, limit)
}

// GetUniqueSearchHistory retrieves recent searches, keeping only the latest
// run of each title, authors and type
func GetUniqueSearchHistory(limit int) ([]*SearchHistory, error) {
	return querySearchHistory(`
		SELECT id, title, authors, search_type, mirror, result_count, created_at
		FROM search_history
		WHERE id IN (
			SELECT MAX(id) FROM search_history GROUP BY title, authors, search_type
		)
		ORDER BY id DESC
		LIMIT ?`, limit)
}

func querySearchHistory(query string, limit int) ([]*SearchHistory, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := database.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*SearchHistory
	for rows.Next() {
		h := &SearchHistory{}
		var authorsJSON string
		err := rows.Scan(&h.ID, &h.Title, &authorsJSON, &h.SearchType, &h.Mirror, &h.ResultCount, &h.CreatedAt)
		if err != nil {
			return nil, err
		}

		if authorsJSON != "" {
			json.Unmarshal([]byte(authorsJSON), &h.Authors)
		}

		history = append(history, h)
	}
	return history, rows.Err()
}

// ClearSearchHistory removes all search history
func ClearSearchHistory() error {
	_, err := database.Exec(`DELETE FROM search_history`)
	return err
}

// DeleteSearchHistoryOlderThan removes history older than the given duration
func DeleteSearchHistoryOlderThan(d time.Duration) error {
	cutoff := time.Now().UTC().Add(-d).Format("2006-01-02 15:04:05")
	_, err := database.Exec(`DELETE FROM search_history WHERE created_at < ?`, cutoff)
	return err
}
