package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Document is what gets written to disk at the end of a run.
type Document struct {
	RunID       string       `json:"runId"`
	Target      string       `json:"target"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Aborted     bool         `json:"aborted"`
	AbortReason string       `json:"abortReason,omitempty"`
	Results     Tree         `json:"results"`
	Findings    []Finding    `json:"findings"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Document snapshots the aggregator. abort is the error that stopped the
// run early, or nil.
func (a *Aggregator) Document(target string, started time.Time, abort error) Document {
	doc := Document{
		RunID:       uuid.NewString(),
		Target:      target,
		StartedAt:   started.UTC(),
		FinishedAt:  time.Now().UTC(),
		Results:     a.Export(),
		Findings:    a.Findings(),
		Diagnostics: a.Diagnostics(),
	}
	if doc.Findings == nil {
		doc.Findings = []Finding{}
	}
	if doc.Diagnostics == nil {
		doc.Diagnostics = []Diagnostic{}
	}
	if abort != nil {
		doc.Aborted = true
		doc.AbortReason = abort.Error()
	}
	return doc
}

// WriteFile writes doc as indented JSON, creating parent directories.
func WriteFile(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
