package statusweb

import (
	"errors"
	"testing"
)

func TestModelTracksArchiveLifecycle(t *testing.T) {
	m := NewModel()

	m.ArchiveStarted("a.warc.gz")
	m.ArchiveCompleted("a.warc.gz", 42, nil)
	m.ArchiveStarted("b.warc.gz")
	m.ArchiveCompleted("b.warc.gz", 0, errors.New("download failed"))

	snapshot := m.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(snapshot))
	}
	// Most recently started first.
	if snapshot[0].FileName != "b.warc.gz" {
		t.Errorf("expected b.warc.gz first, got %s", snapshot[0].FileName)
	}
	if snapshot[1].PagesIngested != 42 {
		t.Errorf("expected 42 pages for a.warc.gz, got %d", snapshot[1].PagesIngested)
	}
	if snapshot[0].Error == "" {
		t.Error("expected b.warc.gz to carry its error string")
	}
}

func TestModelCompletionWithoutStartStillRecorded(t *testing.T) {
	m := NewModel()
	m.ArchiveCompleted("orphan.warc.gz", 7, nil)

	snapshot := m.Snapshot()
	if len(snapshot) != 1 || !snapshot[0].Completed || snapshot[0].PagesIngested != 7 {
		t.Errorf("expected the orphan completion to be recorded, got %+v", snapshot)
	}
}

func TestSummarize(t *testing.T) {
	m := NewModel()
	m.ArchiveStarted("a.warc.gz")
	m.ArchiveCompleted("a.warc.gz", 10, nil)
	m.ArchiveStarted("b.warc.gz")
	m.ArchiveCompleted("b.warc.gz", 0, errors.New("boom"))
	m.ArchiveStarted("c.warc.gz")

	s := m.Summarize()
	if s.Total != 3 || s.Started != 3 || s.Completed != 2 || s.Failed != 1 || s.Pages != 10 {
		t.Errorf("unexpected summary %+v", s)
	}
}
