package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// parseJob records one parse request handled by the API.
type parseJob struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Format    string    `json:"format"`
	Records   int       `json:"records"`
	State     string    `json:"state"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// job history backend: "json" file or "sqlite" database
var (
	jobsMu    sync.Mutex
	jobsStore = "json"
	jobsPath  = "jobs.json"
	jobsDB    *sql.DB
)

const jobsSchema = `CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    file TEXT,
    format TEXT,
    records INTEGER,
    state TEXT,
    message TEXT,
    created_at TEXT,
    updated_at TEXT
)`

// openJobsDB opens the sqlite job history database, creating the schema if
// needed.
func openJobsDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(jobsSchema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// saveJobs persists the whole job list to the configured backend.
func saveJobs(path string, jobs []parseJob) error {
	if jobsStore == "sqlite" {
		return saveJobsSQLite(jobs)
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func saveJobsSQLite(jobs []parseJob) error {
	if jobsDB == nil {
		return fmt.Errorf("sqlite jobs store not initialized")
	}
	tx, err := jobsDB.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM jobs`); err != nil {
		tx.Rollback()
		return err
	}
	for _, j := range jobs {
		_, err := tx.Exec(`INSERT INTO jobs (id, file, format, records, state, message, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			j.ID, j.File, j.Format, j.Records, j.State, j.Message,
			j.CreatedAt.UTC().Format(time.RFC3339), j.UpdatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// loadJobs reads the job list back. A missing JSON file is an empty history,
// not an error.
func loadJobs(path string) ([]parseJob, error) {
	if jobsStore == "sqlite" {
		return loadJobsSQLite()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var jobs []parseJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func loadJobsSQLite() ([]parseJob, error) {
	if jobsDB == nil {
		return nil, fmt.Errorf("sqlite jobs store not initialized")
	}
	rows, err := jobsDB.Query(`SELECT id, file, format, records, state, message, created_at, updated_at FROM jobs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []parseJob
	for rows.Next() {
		var j parseJob
		var created, updated string
		if err := rows.Scan(&j.ID, &j.File, &j.Format, &j.Records, &j.State, &j.Message, &created, &updated); err != nil {
			return nil, err
		}
		j.CreatedAt, _ = time.Parse(time.RFC3339, created)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// recordJob appends one job to the history (read-modify-write under a lock).
func recordJob(job parseJob) error {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	jobs, err := loadJobs(jobsPath)
	if err != nil {
		return err
	}
	jobs = append(jobs, job)
	return saveJobs(jobsPath, jobs)
}

func newJobID() string {
	return fmt.Sprintf("job-%d", time.Now().UnixNano())
}
