package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadJobs_SQLite(t *testing.T) {
	f := filepath.Join(t.TempDir(), "jobs.db")

	// initialize sqlite store
	jobsStore = "sqlite"
	jobsPath = f
	t.Cleanup(func() {
		jobsStore = "json"
		jobsDB = nil
	})

	var err error
	jobsDB, err = openJobsDB(f)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer jobsDB.Close()

	now := time.Now().UTC().Truncate(time.Second)
	jobs := []parseJob{{ID: "j1", File: "abca4.gb", Format: "genbank", Records: 2, State: "done", CreatedAt: now, UpdatedAt: now}}
	if err := saveJobs(f, jobs); err != nil {
		t.Fatalf("saveJobs failed: %v", err)
	}
	loaded, err := loadJobs(f)
	if err != nil {
		t.Fatalf("loadJobs failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "j1" {
		t.Fatalf("unexpected loaded jobs: %#v", loaded)
	}
	if loaded[0].Records != 2 || loaded[0].State != "done" {
		t.Fatalf("job fields lost across save/load: %#v", loaded[0])
	}
	if !loaded[0].CreatedAt.Equal(now) {
		t.Fatalf("created_at changed: want %v, got %v", now, loaded[0].CreatedAt)
	}
}

// saveJobs replaces the stored list (the history is written whole each time),
// and loading returns jobs ordered by creation time.
func TestSaveJobs_SQLiteReplacesAndOrders(t *testing.T) {
	f := filepath.Join(t.TempDir(), "jobs.db")

	jobsStore = "sqlite"
	jobsPath = f
	t.Cleanup(func() {
		jobsStore = "json"
		jobsDB = nil
	})

	var err error
	jobsDB, err = openJobsDB(f)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer jobsDB.Close()

	base := time.Now().UTC().Truncate(time.Second)
	first := []parseJob{{ID: "old", State: "done", CreatedAt: base, UpdatedAt: base}}
	if err := saveJobs(f, first); err != nil {
		t.Fatalf("saveJobs failed: %v", err)
	}

	second := []parseJob{
		{ID: "j2", State: "done", CreatedAt: base.Add(2 * time.Second), UpdatedAt: base.Add(2 * time.Second)},
		{ID: "j1", State: "failed", CreatedAt: base.Add(time.Second), UpdatedAt: base.Add(time.Second)},
	}
	if err := saveJobs(f, second); err != nil {
		t.Fatalf("saveJobs failed: %v", err)
	}

	loaded, err := loadJobs(f)
	if err != nil {
		t.Fatalf("loadJobs failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("old rows not replaced: %#v", loaded)
	}
	if loaded[0].ID != "j1" || loaded[1].ID != "j2" {
		t.Fatalf("jobs not ordered by created_at: %#v", loaded)
	}
}
