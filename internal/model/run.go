package model

import "time"

// RunStatus is the outcome of analyzing one attachment.
type RunStatus string

const (
	RunStatusAnalyzed      RunStatus = "analyzed"
	RunStatusPersistFailed RunStatus = "persist_failed"
	RunStatusFailed        RunStatus = "failed"
)

// AnalysisRun is a ledger entry for one attachment analysis.
type AnalysisRun struct {
	ID           string    `json:"id"`
	NoteID       string    `json:"note_id"`
	AttachmentID string    `json:"attachment_id"`
	ObjectKey    string    `json:"object_key,omitempty"`
	Status       RunStatus `json:"status"`
	Score        int       `json:"score"`
	Character    string    `json:"character,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
