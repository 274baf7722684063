package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "journal", "synothumb.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_RunLifecycle(t *testing.T) {
	s := newTestStorage(t)

	runID, err := s.StartRun("/photos", 4)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	j := s.Journal(runID)
	records := []FileRecord{
		{Path: "/photos/a.jpg", Kind: "standard", Size: 100, Status: StatusOK, Written: 5},
		{Path: "/photos/b.cr2", Kind: "raw", Size: 200, Status: StatusOK, Skipped: true},
		{Path: "/photos/c.jpg", Kind: "standard", Size: 10, Status: StatusFailed, Error: "ошибка декодирования"},
	}
	for _, rec := range records {
		if err := j.RecordFile(rec); err != nil {
			t.Fatalf("RecordFile(%s) error = %v", rec.Path, err)
		}
	}

	totals := RunTotals{Dispatched: 3, Succeeded: 2, Failed: 1, Skipped: 1, Variants: 5}
	if err := s.FinishRun(runID, StatusOK, totals); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	st, err := s.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if st.Runs != 1 || st.Files != 3 || st.OK != 2 || st.Failed != 1 || st.Skipped != 1 || st.Variants != 5 {
		t.Errorf("GetStats() = %+v", st)
	}
	if st.LastRun == nil {
		t.Fatal("LastRun = nil")
	}
	if st.LastRun.Status != StatusOK || st.LastRun.Totals != totals || st.LastRun.Root != "/photos" {
		t.Errorf("LastRun = %+v", st.LastRun)
	}
	if st.LastRun.FinishedAt.IsZero() {
		t.Error("LastRun.FinishedAt is zero")
	}
}

func TestStorage_FailedFilesLatestAttempt(t *testing.T) {
	s := newTestStorage(t)

	run1, _ := s.StartRun("/photos", 4)
	_ = s.Journal(run1).RecordFile(FileRecord{Path: "/photos/a.jpg", Kind: "standard", Status: StatusFailed, Error: "boom"})
	_ = s.Journal(run1).RecordFile(FileRecord{Path: "/photos/b.jpg", Kind: "standard", Status: StatusFailed, Error: "boom"})

	// Во втором запуске a.jpg обработан успешно
	run2, _ := s.StartRun("/photos", 4)
	_ = s.Journal(run2).RecordFile(FileRecord{Path: "/photos/a.jpg", Kind: "standard", Status: StatusOK, Written: 5})

	failed, err := s.FailedFiles(10)
	if err != nil {
		t.Fatalf("FailedFiles() error = %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("FailedFiles() = %d records, want 1", len(failed))
	}
	if failed[0].Path != "/photos/b.jpg" || failed[0].Error != "boom" || failed[0].RunID != run1 {
		t.Errorf("FailedFiles()[0] = %+v", failed[0])
	}
}

func TestStorage_CleanupInProgress(t *testing.T) {
	s := newTestStorage(t)

	run1, _ := s.StartRun("/photos", 4)
	run2, _ := s.StartRun("/photos", 4)
	if err := s.FinishRun(run2, StatusOK, RunTotals{}); err != nil {
		t.Fatal(err)
	}

	n, err := s.CleanupInProgress()
	if err != nil {
		t.Fatalf("CleanupInProgress() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CleanupInProgress() = %d, want 1", n)
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns() = %d, want 2", len(runs))
	}
	// Новые первыми
	if runs[0].ID != run2 || runs[0].Status != StatusOK {
		t.Errorf("runs[0] = %+v", runs[0])
	}
	if runs[1].ID != run1 || runs[1].Status != StatusInterrupted {
		t.Errorf("runs[1] = %+v", runs[1])
	}
	if !runs[1].FinishedAt.IsZero() {
		t.Error("interrupted run has FinishedAt")
	}
}

func TestStorage_ConcurrentRecords(t *testing.T) {
	s := newTestStorage(t)
	runID, _ := s.StartRun("/photos", 8)
	j := s.Journal(runID)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				rec := FileRecord{Path: fmt.Sprintf("/photos/%d/%d.jpg", w, i), Kind: "standard", Status: StatusOK, Written: 5}
				if err := j.RecordFile(rec); err != nil {
					t.Errorf("RecordFile() error = %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	st, err := s.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Files != 200 || st.Variants != 1000 {
		t.Errorf("GetStats() Files = %d, Variants = %d; want 200, 1000", st.Files, st.Variants)
	}
}

func TestStorage_EmptyStats(t *testing.T) {
	s := newTestStorage(t)

	st, err := s.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if st.Runs != 0 || st.Files != 0 || st.LastRun != nil {
		t.Errorf("GetStats() = %+v, want empty", st)
	}
}

func TestRunJournal_NoRun(t *testing.T) {
	s := newTestStorage(t)

	err := s.Journal(0).RecordFile(FileRecord{Path: "a.jpg"})
	if !errors.Is(err, ErrNoRun) {
		t.Errorf("RecordFile() error = %v, want ErrNoRun", err)
	}
}

func TestStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synothumb.db")

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.StartRun("/photos", 4); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	// Миграции идемпотентны
	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = s.Close() }()

	st, err := s.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Runs != 1 {
		t.Errorf("Runs = %d, want 1", st.Runs)
	}
}
