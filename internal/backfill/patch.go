package backfill

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/timelocker/tracker/internal/catalog"
	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/internal/title"
)

// Field names a title-derived field that can be recomputed.
type Field string

const (
	// FieldMissSituation is the first title sentence without the name prefix.
	FieldMissSituation Field = "miss-situation"
	// FieldCharacter is the catalog-corrected character name.
	FieldCharacter Field = "character"
	// FieldReasons is the list split from the second title sentence.
	FieldReasons Field = "reasons"
)

// Fields lists the patchable fields.
var Fields = []Field{FieldMissSituation, FieldCharacter, FieldReasons}

// Patch returns an UpdateFunc that recomputes field from the stored title.
func Patch(field Field, cat *catalog.Catalog) (UpdateFunc, error) {
	if cat == nil {
		cat = catalog.Default()
	}
	switch field {
	case FieldMissSituation:
		return func(rec *model.NoteSourcedPlayResult) (bool, error) {
			v := title.MissSituation(rec.Title)
			if v == rec.MissSituation {
				return false, nil
			}
			rec.MissSituation = v
			return true, nil
		}, nil
	case FieldCharacter:
		return func(rec *model.NoteSourcedPlayResult) (bool, error) {
			v := title.Character(rec.Title)
			if v != "" {
				v = cat.Correct(v)
			}
			if v == rec.Character {
				return false, nil
			}
			rec.Character = v
			return true, nil
		}, nil
	case FieldReasons:
		return func(rec *model.NoteSourcedPlayResult) (bool, error) {
			v := title.Reasons(rec.Title)
			if slices.Equal(v, rec.Reasons) && rec.Reasons != nil {
				return false, nil
			}
			rec.Reasons = v
			return true, nil
		}, nil
	default:
		return nil, eris.Errorf("backfill: unknown field %q", field)
	}
}
