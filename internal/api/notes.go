package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/pkg/notion"
)

// maxScreenshotBody bounds the direct analysis request body.
const maxScreenshotBody = 16 << 20

// webhook answers the note service's change notification. Notifications
// that are not for a new or updated play record are acknowledged with 200
// so that the sender does not retry them.
func (s *Server) webhook(r *http.Request) (any, error) {
	if r.URL.RawQuery == "" {
		return nil, invalid("Query string is null.")
	}
	q := r.URL.Query()

	reason := q.Get("reason")
	if reason != "create" && reason != "update" {
		return message{Message: fmt.Sprintf("No operation. Because reason is '%s'.", reason)}, nil
	}

	notebookID := q.Get("notebookGuid")
	if notebookID == "" {
		return nil, invalid("GUID for notebook is empty.")
	}
	if !notion.SameID(notebookID, s.cfg.NotebookID) {
		return message{Message: "No operation. Because, note is not Time Locker note'."}, nil
	}

	noteID := q.Get("guid")
	if noteID == "" {
		return nil, invalid("GUID for note is empty.")
	}

	results, err := s.notes.ProcessNote(r.Context(), noteID)
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		zap.L().Info("api: note image analyzed",
			zap.String("note_id", noteID),
			zap.Int("index", i+1),
			zap.String("title", res.Title),
			zap.Int("score", res.Score),
		)
	}
	return message{Message: fmt.Sprintf("%d image analyzed.", len(results))}, nil
}

type screenshotRequest struct {
	DataInBase64 string `json:"dataInBase64"`
}

func (s *Server) analyzeScreenshot(r *http.Request) (any, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxScreenshotBody))
	if err != nil {
		return nil, eris.Wrap(err, "api: read request body")
	}
	var req screenshotRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, invalid("Request body is not valid JSON.")
	}
	if req.DataInBase64 == "" {
		return nil, invalid("Property 'dataInBase64' is missing.")
	}
	img, err := base64.StdEncoding.DecodeString(req.DataInBase64)
	if err != nil {
		return nil, invalid("Property 'dataInBase64' is not valid base64.")
	}

	res, err := s.analyzer.Analyze(r.Context(), img)
	if err != nil {
		return nil, err
	}
	return s.complement(res), nil
}

func (s *Server) analyzeNote(r *http.Request) (any, error) {
	noteID := r.URL.Query().Get("noteGuid")
	if noteID == "" {
		return nil, invalid("Query parameter 'noteGuid' is missing.")
	}
	results, err := s.notes.ProcessNote(r.Context(), noteID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.NoteSourcedPlayResult, len(results))
	for i, res := range results {
		out[i] = s.complement(res)
	}
	return out, nil
}

// complement returns a copy of res whose armaments list the whole catalog.
func (s *Server) complement(res *model.NoteSourcedPlayResult) *model.NoteSourcedPlayResult {
	out := *res
	out.Armaments = s.catalog.Complement(res.Armaments)
	if out.Reasons == nil {
		out.Reasons = []string{}
	}
	return &out
}
