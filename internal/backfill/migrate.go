package backfill

import (
	"strconv"

	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/internal/title"
)

// Migration upgrades a record to Version.
type Migration struct {
	Version int
	Name    string
	Apply   func(rec *model.NoteSourcedPlayResult)
}

// Migrations are applied in order to records older than their version. The
// last version equals model.CurrentSchemaVersion.
var Migrations = []Migration{
	{Version: 2, Name: "note_meta", Apply: moveLegacyMeta},
	{Version: 3, Name: "miss_situation", Apply: func(rec *model.NoteSourcedPlayResult) {
		rec.MissSituation = title.MissSituation(rec.Title)
	}},
}

// moveLegacyMeta copies the Evernote provenance block into noteMeta.
func moveLegacyMeta(rec *model.NoteSourcedPlayResult) {
	legacy := rec.EvernoteMeta
	if legacy == nil {
		return
	}
	if rec.NoteMeta == (model.NoteMeta{}) {
		rec.NoteMeta = model.NoteMeta{
			NoteGUID:  legacy.NoteGUID,
			MediaGUID: legacy.MediaGUID,
			Username:  legacy.Username,
		}
		if legacy.UserID != 0 {
			rec.NoteMeta.UserID = strconv.FormatInt(legacy.UserID, 10)
		}
	}
	rec.EvernoteMeta = nil
}

// Migrate brings rec to the current schema version.
func Migrate(rec *model.NoteSourcedPlayResult) (bool, error) {
	from := rec.Version()
	changed := false
	for _, m := range Migrations {
		if m.Version <= from {
			continue
		}
		m.Apply(rec)
		rec.SchemaVersion = m.Version
		changed = true
	}
	return changed, nil
}
