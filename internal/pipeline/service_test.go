package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ficr/insight/internal/queries"
	"github.com/ficr/insight/internal/sparql"
)

type recordedEvent struct {
	name string
	data []byte
}

type eventRecorder struct {
	events []recordedEvent
}

func (r *eventRecorder) emit(name string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	r.events = append(r.events, recordedEvent{name: name, data: raw})
	return nil
}

func (r *eventRecorder) names() []string {
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.name
	}
	return names
}

type stubRunner struct {
	failContaining string
}

func (s *stubRunner) Query(_ context.Context, query string) (*sparql.ResultSet, error) {
	if s.failContaining != "" && strings.Contains(query, s.failContaining) {
		return nil, errors.New("endpoint rejected query")
	}
	return &sparql.ResultSet{
		Variables: []string{"label"},
		Rows:      []sparql.Row{{"label": sparql.Text("Wall W-01")}},
	}, nil
}

func newTestService(t *testing.T, converterURL string, runner QueryRunner) *Service {
	t.Helper()
	catalog, err := queries.Load()
	if err != nil {
		t.Fatalf("catalog load failed: %v", err)
	}
	converter := NewConverterClient(converterURL, 0)
	return NewService(converter, runner, catalog, NewLLMClient(0.2, 2000, 5))
}

func validSurvey(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := SampleBySlug("two-storey-office")
	if err != nil {
		t.Fatalf("sample missing: %v", err)
	}
	return raw
}

func TestRunValidationFailureShortCircuits(t *testing.T) {
	converter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("converter must not be called when validation fails")
	}))
	defer converter.Close()

	svc := newTestService(t, converter.URL, &stubRunner{})
	rec := &eventRecorder{}

	summary := svc.Run(context.Background(), RunRequest{Survey: json.RawMessage(`{}`)}, rec.emit)

	if summary.Succeeded || summary.Stage != "validation" {
		t.Errorf("unexpected summary: %+v", summary)
	}
	want := []string{EventValidation, EventError}
	got := rec.names()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected events %v, got %v", want, got)
	}

	var payload ValidationPayload
	json.Unmarshal(rec.events[0].data, &payload)
	if payload.Status != "fail" || len(payload.Errors) == 0 {
		t.Errorf("validation payload should carry errors: %+v", payload)
	}
}

func TestRunConverterFailureEndsAtRDFStage(t *testing.T) {
	converter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "store unavailable", http.StatusBadGateway)
	}))
	defer converter.Close()

	svc := newTestService(t, converter.URL, &stubRunner{})
	rec := &eventRecorder{}

	summary := svc.Run(context.Background(), RunRequest{Survey: validSurvey(t)}, rec.emit)

	if summary.Succeeded || summary.Stage != "rdf" {
		t.Errorf("unexpected summary: %+v", summary)
	}
	got := rec.names()
	if got[len(got)-1] != EventError {
		t.Errorf("run should end with an error event, got %v", got)
	}

	var payload ErrorPayload
	json.Unmarshal(rec.events[len(rec.events)-1].data, &payload)
	if payload.Stage != "rdf" {
		t.Errorf("error should name the rdf stage: %+v", payload)
	}
}

func TestRunProbeFailuresAreCountedNotFatal(t *testing.T) {
	converter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ConvertResult{TripleCount: 412, GraphURI: "urn:ficr:survey"})
	}))
	defer converter.Close()

	// ?totalAssumptions appears only in the risk-confidence preset, so
	// exactly one probe fails.
	svc := newTestService(t, converter.URL, &stubRunner{failContaining: "totalAssumptions"})
	rec := &eventRecorder{}

	// Unknown provider stops the run at the report stage without any
	// network traffic to an LLM.
	summary := svc.Run(context.Background(), RunRequest{
		Survey:   validSurvey(t),
		Provider: "nonexistent",
	}, rec.emit)

	if summary.Succeeded || summary.Stage != "report" {
		t.Errorf("unexpected summary: %+v", summary)
	}

	want := []string{EventValidation, EventRDF, EventSPARQL, EventReportStart, EventError}
	got := rec.names()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	var rdf RDFPayload
	json.Unmarshal(rec.events[1].data, &rdf)
	if rdf.TripleCount != 412 {
		t.Errorf("triple count should pass through, got %d", rdf.TripleCount)
	}

	var sp SPARQLPayload
	json.Unmarshal(rec.events[2].data, &sp)
	if sp.ProbesFailed != 1 {
		t.Errorf("expected exactly one failed probe, got %d", sp.ProbesFailed)
	}
	if sp.QueryCount <= sp.ProbesFailed {
		t.Errorf("query count %d should exceed failures %d", sp.QueryCount, sp.ProbesFailed)
	}

	var errPayload ErrorPayload
	json.Unmarshal(rec.events[4].data, &errPayload)
	if errPayload.Stage != "report" || !strings.Contains(errPayload.Message, "nonexistent") {
		t.Errorf("unexpected error payload: %+v", errPayload)
	}
}
