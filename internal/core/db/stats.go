package db

import (
	"database/sql"
	"time"

	"github.com/neilberkman/modforge/internal/core/models"
)

// Stats represents index statistics
type Stats struct {
	TotalSessions         int
	TotalTokens           int
	TotalExtractedFiles   int
	DistinctFiles         int
	OldestSession         time.Time
	NewestSession         time.Time
	MostActiveModule      string
	MostActiveModuleCount int
	SessionsByModule      map[string]int
}

// GetStats returns index statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{SessionsByModule: map[string]int{}}

	err := db.QueryRow("SELECT COUNT(*), COALESCE(SUM(tokens_used), 0) FROM sessions").
		Scan(&stats.TotalSessions, &stats.TotalTokens)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow("SELECT COUNT(*), COUNT(DISTINCT path) FROM extracted_files").
		Scan(&stats.TotalExtractedFiles, &stats.DistinctFiles)
	if err != nil {
		return nil, err
	}

	if stats.TotalSessions == 0 {
		return stats, nil
	}

	var minCreated, maxCreated sql.NullString
	err = db.QueryRow("SELECT MIN(created_at), MAX(created_at) FROM sessions").Scan(&minCreated, &maxCreated)
	if err != nil {
		return nil, err
	}
	if minCreated.Valid {
		stats.OldestSession, _ = models.ParseTimestamp(minCreated.String)
	}
	if maxCreated.Valid {
		stats.NewestSession, _ = models.ParseTimestamp(maxCreated.String)
	}

	rows, err := db.Query(`
		SELECT module, COUNT(*) as count
		FROM sessions
		GROUP BY module
		ORDER BY count DESC, module ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var module string
		var count int
		if err := rows.Scan(&module, &count); err != nil {
			return nil, err
		}
		if module == "" {
			module = "general"
		}
		stats.SessionsByModule[module] = count
		if stats.MostActiveModule == "" {
			stats.MostActiveModule = module
			stats.MostActiveModuleCount = count
		}
	}

	return stats, rows.Err()
}
