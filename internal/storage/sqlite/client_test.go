package sqlite

import (
	"testing"
	"time"

	"github.com/ficr/insight/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if err := c.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return c
}

func TestQueryHistoryRoundTrip(t *testing.T) {
	c := newTestClient(t)

	records := []*models.QueryRecord{
		{
			ID:        "q1",
			QueryText: "SELECT ?s WHERE { ?s ?p ?o }",
			Source:    "raw",
			Status:    "ok",
			RowCount:  12,
			LatencyMS: 34,
			CreatedAt: time.Unix(1000, 0),
		},
		{
			ID:        "q2",
			QueryText: "SELECT ?x WHERE { ?x a ficr:Wall }",
			Source:    "preset",
			Status:    "error",
			ErrorText: "sparql endpoint returned 500",
			CreatedAt: time.Unix(2000, 0),
		},
	}
	for _, r := range records {
		if err := c.InsertQueryRecord(r); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	got, err := c.GetQueryHistory(10)
	if err != nil {
		t.Fatalf("history read failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	// Newest first.
	if got[0].ID != "q2" || got[1].ID != "q1" {
		t.Errorf("history not ordered newest first: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].ErrorText != "sparql endpoint returned 500" {
		t.Errorf("error text not preserved: %q", got[0].ErrorText)
	}
	if got[1].RowCount != 12 || got[1].LatencyMS != 34 {
		t.Errorf("counters not preserved: %+v", got[1])
	}
}

func TestQueryHistoryLimit(t *testing.T) {
	c := newTestClient(t)

	for i := 0; i < 5; i++ {
		err := c.InsertQueryRecord(&models.QueryRecord{
			ID:        string(rune('a' + i)),
			QueryText: "SELECT ?s WHERE { ?s ?p ?o }",
			Status:    "ok",
			CreatedAt: time.Unix(int64(i*100), 0),
		})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	got, err := c.GetQueryHistory(3)
	if err != nil {
		t.Fatalf("history read failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("limit not applied, got %d records", len(got))
	}
}

func TestPipelineRunRoundTrip(t *testing.T) {
	c := newTestClient(t)

	err := c.InsertPipelineRun(&models.PipelineRun{
		ID:        "run1",
		Provider:  "openai",
		Model:     "gpt-4o",
		Stage:     "done",
		Succeeded: true,
		CharCount: 5120,
		CreatedAt: time.Unix(3000, 0),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	runs, err := c.GetPipelineRuns(10)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if !r.Succeeded || r.Stage != "done" || r.CharCount != 5120 {
		t.Errorf("run not preserved: %+v", r)
	}
}
