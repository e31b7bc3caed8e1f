package models

import "time"

type QueryRecord struct {
	ID        string
	QueryText string
	Source    string
	Status    string
	RowCount  int
	LatencyMS int
	ErrorText string
	CreatedAt time.Time
}

type PipelineRun struct {
	ID        string
	Provider  string
	Model     string
	Stage     string
	Succeeded bool
	CharCount int
	CreatedAt time.Time
}
