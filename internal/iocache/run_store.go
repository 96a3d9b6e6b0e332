package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// Table names for run history.
const (
	runsTable      = "leaderboard_runs"
	standingsTable = "leaderboard_standings"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend and applies pending migrations.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported runs backend: %s", backend)
	}

	db, err := openSQL(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

func (rs *RunStoreImpl) table(name string) string {
	return quoteTableName(name, rs.backend)
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, source string, configParams map[string]any) (int64, error) {
	if rs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, source, config_params) VALUES ($1, $2, $3) RETURNING run_id`, rs.table(runsTable))
		err = rs.db.QueryRow(query, formatTime(startTime, rs.backend), source, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, source, config_params) VALUES (?, ?, ?)`, rs.table(runsTable))
		var result sql.Result
		result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), source, string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with its outcome.
func (rs *RunStoreImpl) EndRun(runID int64, outcome schema.RunOutcome) error {
	if rs.disabled() {
		return nil
	}

	start := timeScanner{backend: rs.backend}
	query := rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, rs.table(runsTable)), rs.backend)
	if err := rs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	if startTime == nil {
		return fmt.Errorf("run %d has no start_time", runID)
	}

	var latestCommit, errorMessage *string
	if outcome.LatestCommit != "" {
		latestCommit = &outcome.LatestCommit
	}
	if outcome.ErrorMessage != "" {
		errorMessage = &outcome.ErrorMessage
	}

	update := rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, success = ?,
		commits_analyzed = ?, latest_commit = ?, error_message = ? WHERE run_id = ?`, rs.table(runsTable)), rs.backend)
	_, err = rs.db.Exec(update,
		formatTime(outcome.EndTime, rs.backend),
		outcome.EndTime.Sub(*startTime).Milliseconds(),
		outcome.Success,
		outcome.CommitsAnalyzed,
		latestCommit,
		errorMessage,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordStandings stores the contributor standings of a run in one transaction.
func (rs *RunStoreImpl) RecordStandings(runID int64, standings []schema.StandingRecord) error {
	if rs.disabled() || len(standings) == 0 {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	query := rebind(fmt.Sprintf(`INSERT INTO %s (run_id, period_type, period_key, contributor,
		standing_rank, tier, commit_score, total_score, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, rs.table(standingsTable)), rs.backend)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare standings insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range standings {
		if _, err := stmt.Exec(runID, s.PeriodType, s.PeriodKey, s.Contributor,
			s.Rank, s.Tier, s.CommitScore, s.TotalScore, formatTime(s.RecordedAt, rs.backend)); err != nil {
			return fmt.Errorf("failed to insert standing of %s: %w", s.Contributor, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", rs.table(runsTable))).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: rs.backend}
		var success bool
		lastQuery := fmt.Sprintf("SELECT run_id, start_time, success FROM %s ORDER BY run_id DESC LIMIT 1", rs.table(runsTable))
		if err := rs.db.QueryRow(lastQuery).Scan(&status.LastRunID, last.dest(), &success); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastTime, err := last.value()
		if err != nil {
			return status, err
		}
		if lastTime != nil {
			status.LastRunTime = *lastTime
		}
		status.LastRunSuccessful = success

		oldest := timeScanner{backend: rs.backend}
		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", rs.table(runsTable))
		if err := rs.db.QueryRow(oldestQuery).Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestTime, err := oldest.value()
		if err != nil {
			return status, err
		}
		if oldestTime != nil {
			status.OldestRunTime = *oldestTime
		}
	}

	for _, table := range []string{runsTable, standingsTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", rs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs from the store, oldest first.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, source, success,
		commits_analyzed, latest_commit, error_message, config_params FROM %s ORDER BY run_id`, rs.table(runsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		start := timeScanner{backend: rs.backend}
		end := timeScanner{backend: rs.backend}
		if err := rows.Scan(&record.RunID, start.dest(), end.dest(), &record.RunDurationMs, &record.Source,
			&record.Success, &record.CommitsAnalyzed, &record.LatestCommit, &record.ErrorMessage, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllStandings retrieves all standings ordered by run, period and rank.
func (rs *RunStoreImpl) GetAllStandings() ([]schema.StandingRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, period_type, period_key, contributor, standing_rank, tier,
		commit_score, total_score, recorded_at FROM %s ORDER BY run_id, period_type, standing_rank`, rs.table(standingsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.StandingRecord
	for rows.Next() {
		var record schema.StandingRecord
		recorded := timeScanner{backend: rs.backend}
		if err := rows.Scan(&record.RunID, &record.PeriodType, &record.PeriodKey, &record.Contributor,
			&record.Rank, &record.Tier, &record.CommitScore, &record.TotalScore, recorded.dest()); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		recordedAt, err := recorded.value()
		if err != nil {
			return nil, err
		}
		if recordedAt != nil {
			record.RecordedAt = *recordedAt
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standings: %w", err)
	}
	return results, nil
}
