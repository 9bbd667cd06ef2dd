package database

import (
	"database/sql"
	"time"
)

const actionColumns = `
	SELECT id, sweep_id, timestamp, action, path, file_name, object_type, reason, size, error_message
	FROM actions
`

// GetRecentActions returns the N most recent actions across all sweeps
func (d *SweepDB) GetRecentActions(limit int) ([]ActionRecord, error) {
	return d.queryActions(actionColumns+`ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
}

// GetActionsBySweep returns the actions of one sweep in the order they happened
func (d *SweepDB) GetActionsBySweep(sweepID int64) ([]ActionRecord, error) {
	return d.queryActions(actionColumns+`WHERE sweep_id = ? ORDER BY id ASC`, sweepID)
}

// GetActionsByAction returns actions filtered by action type
func (d *SweepDB) GetActionsByAction(action string) ([]ActionRecord, error) {
	return d.queryActions(actionColumns+`WHERE action = ? ORDER BY timestamp DESC, id DESC`, action)
}

// GetActionsByPath returns actions matching a path pattern (SQL LIKE syntax)
func (d *SweepDB) GetActionsByPath(pathPattern string) ([]ActionRecord, error) {
	return d.queryActions(actionColumns+`WHERE path LIKE ? ORDER BY timestamp DESC, id DESC`, pathPattern)
}

// GetLargestRemovals returns the N largest successful deletions by size
func (d *SweepDB) GetLargestRemovals(limit int) ([]ActionRecord, error) {
	return d.queryActions(actionColumns+`WHERE action = 'DELETE' ORDER BY size DESC LIMIT ?`, limit)
}

// GetRecentSweeps returns the N most recent sweeps
func (d *SweepDB) GetRecentSweeps(limit int) ([]SweepRecord, error) {
	rows, err := d.db.Query(`
	SELECT id, started_at, finished_at, root, dry_run,
	       directories_removed, files_removed, not_found, failed, bytes_freed
	FROM sweeps
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sweeps []SweepRecord
	for rows.Next() {
		var s SweepRecord
		var finished sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.StartedAt, &finished, &s.Root, &s.DryRun,
			&s.DirectoriesRemoved, &s.FilesRemoved, &s.NotFound, &s.Failed, &s.BytesFreed,
		); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			s.FinishedAt = &t
		}
		sweeps = append(sweeps, s)
	}

	return sweeps, rows.Err()
}

// GetTotalSpaceFreed returns total bytes freed in a time range
func (d *SweepDB) GetTotalSpaceFreed(start, end time.Time) (int64, error) {
	var total int64
	err := d.db.QueryRow(`
	SELECT COALESCE(SUM(size), 0)
	FROM actions
	WHERE action = 'DELETE' AND timestamp BETWEEN ? AND ?
	`, start, end).Scan(&total)
	return total, err
}

// GetActionCounts returns the count of actions grouped by action since a point in time
func (d *SweepDB) GetActionCounts(since time.Time) (map[string]int, error) {
	rows, err := d.db.Query(`
	SELECT action, COUNT(*)
	FROM actions
	WHERE timestamp >= ?
	GROUP BY action
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		counts[action] = count
	}

	return counts, rows.Err()
}

// SweepStats holds aggregated statistics
type SweepStats struct {
	TotalSweeps     int
	TotalDeletions  int
	TotalNotFound   int
	TotalErrors     int
	TotalSpaceFreed int64
	ByAction        map[string]int
	StartDate       time.Time
	EndDate         time.Time
}

// GetSweepStats returns statistics for the last N days
func (d *SweepDB) GetSweepStats(days int) (*SweepStats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	stats := &SweepStats{
		StartDate: since,
		EndDate:   now,
	}

	err := d.db.QueryRow(`SELECT COUNT(*) FROM sweeps WHERE started_at >= ?`, since).Scan(&stats.TotalSweeps)
	if err != nil {
		return nil, err
	}

	stats.ByAction, err = d.GetActionCounts(since)
	if err != nil {
		return nil, err
	}
	stats.TotalDeletions = stats.ByAction["DELETE"]
	stats.TotalNotFound = stats.ByAction["NOT_FOUND"]
	stats.TotalErrors = stats.ByAction["ERROR"] + stats.ByAction["BLOCKED"]

	stats.TotalSpaceFreed, err = d.GetTotalSpaceFreed(since, now)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteOldRecords removes sweeps and their actions older than the given days
func (d *SweepDB) DeleteOldRecords(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM actions WHERE sweep_id IN (SELECT id FROM sweeps WHERE started_at < ?)
	`, cutoff); err != nil {
		return 0, err
	}

	result, err := tx.Exec(`DELETE FROM sweeps WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return removed, tx.Commit()
}

// queryActions is a helper function to execute queries and scan results
func (d *SweepDB) queryActions(query string, args ...interface{}) ([]ActionRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ActionRecord
	for rows.Next() {
		var r ActionRecord
		var fileName, objectType, reason, errMsg sql.NullString

		err := rows.Scan(
			&r.ID, &r.SweepID, &r.Timestamp, &r.Action, &r.Path,
			&fileName, &objectType, &reason, &r.Size, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		r.FileName = fileName.String
		r.ObjectType = objectType.String
		r.Reason = reason.String
		r.ErrorMessage = errMsg.String

		records = append(records, r)
	}

	return records, rows.Err()
}
