package pipeline

import "encoding/json"

// Event names emitted over the SSE stream, in pipeline order. The stream is
// a sequence of discrete, ordered messages; consumers switch on the name.
const (
	EventValidation  = "validation"
	EventRDF         = "rdf"
	EventSPARQL      = "sparql"
	EventReportStart = "report_start"
	EventReportChunk = "report_chunk"
	EventReportDone  = "report_done"
	EventError       = "error"
	EventDone        = "done"
)

// Event is one framed SSE message.
type Event struct {
	Name string
	Data json.RawMessage
}

type ValidationPayload struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type RDFPayload struct {
	Status      string `json:"status"`
	TripleCount int    `json:"triple_count"`
}

type SPARQLPayload struct {
	Status       string                 `json:"status"`
	QueryCount   int                    `json:"query_count"`
	ProbesFailed int                    `json:"probes_failed"`
	Results      map[string]interface{} `json:"results"`
}

type ReportStartPayload struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type ReportChunkPayload struct {
	Text string `json:"text"`
}

type ReportDonePayload struct {
	FullReport string `json:"full_report"`
	CharCount  int    `json:"char_count"`
}

type ErrorPayload struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type DonePayload struct {
	Message string `json:"message"`
}
