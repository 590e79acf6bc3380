package model

import (
	"strings"
	"time"
)

// GameMode is the difficulty a play was recorded on.
type GameMode string

const (
	GameModeNormal GameMode = "Normal"
	GameModeHard   GameMode = "Hard"
)

// ParseGameMode maps any case of "hard" to GameModeHard and everything else,
// including the empty string, to GameModeNormal.
func ParseGameMode(s string) GameMode {
	if strings.ToUpper(s) == "HARD" {
		return GameModeHard
	}
	return GameModeNormal
}

// CurrentSchemaVersion is the layout written by the pipeline. Records without
// a schemaVersion field predate versioning and are treated as version 1.
const CurrentSchemaVersion = 3

// Armament is one equipped weapon and its level. Level is nil when the
// level OCR produced nothing readable for the slot.
type Armament struct {
	Name  string `json:"name"`
	Level *int   `json:"level"`
}

// LevelOf returns a pointer to n, for building Armament literals.
func LevelOf(n int) *int {
	return &n
}

// PlayResult is one completed game attempt.
type PlayResult struct {
	Created       string     `json:"created"`
	Character     string     `json:"character"`
	Mode          GameMode   `json:"mode"`
	Score         int        `json:"score"`
	Armaments     []Armament `json:"armaments"`
	Reasons       []string   `json:"reasons"`
	MissSituation string     `json:"missSituation"`
}

// NoteMeta records which note attachment a result was read from.
type NoteMeta struct {
	NoteGUID  string `json:"noteGuid,omitempty"`
	MediaGUID string `json:"mediaGuid,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
}

// LegacyNoteMeta is the provenance block of records written while notes came
// from Evernote, whose user ids were numeric.
type LegacyNoteMeta struct {
	NoteGUID  string `json:"noteGuid,omitempty"`
	MediaGUID string `json:"mediaGuid,omitempty"`
	UserID    int64  `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
}

// NoteSourcedPlayResult is the persisted form of a play result: the result
// itself plus its provenance and the raw detection evidence.
type NoteSourcedPlayResult struct {
	PlayResult
	SchemaVersion int                `json:"schemaVersion,omitempty"`
	Title         string             `json:"title"`
	NoteMeta      NoteMeta           `json:"noteMeta"`
	EvernoteMeta  *LegacyNoteMeta    `json:"evernoteMeta,omitempty"`
	ArmamentsMeta []ArmamentBounding `json:"armamentsMeta"`
	LevelsMeta    LevelsMeta         `json:"levelsMeta"`
}

// Version returns the record's schema version, 1 when unversioned.
func (r *NoteSourcedPlayResult) Version() int {
	if r.SchemaVersion == 0 {
		return 1
	}
	return r.SchemaVersion
}

// ObjectKey is the storage key for a result read from the given attachment.
func ObjectKey(attachmentID string) string {
	return attachmentID + ".json"
}

// FormatTimestamp renders t the way the created field is stored: UTC with
// millisecond precision. Lexical order of the output equals time order.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
