// Package api is the HTTP surface of the tracker: the note webhook, direct
// analysis endpoints and the report pages.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/timelocker/tracker/internal/catalog"
	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/internal/notify"
	"github.com/timelocker/tracker/internal/report"
)

// NoteProcessor analyzes every image of a note.
type NoteProcessor interface {
	ProcessNote(ctx context.Context, noteID string) ([]*model.NoteSourcedPlayResult, error)
}

// ScreenshotAnalyzer reads a play result off one screenshot.
type ScreenshotAnalyzer interface {
	Analyze(ctx context.Context, image []byte) (*model.NoteSourcedPlayResult, error)
}

// Reports answers the report endpoints.
type Reports interface {
	HomePage() ([]byte, error)
	ScorePerArmlevel(ctx context.Context) ([]byte, error)
	CharacterList(ctx context.Context) ([]report.CharacterScoreData, error)
	CharacterSummary(ctx context.Context, name string) (*report.CharacterSummary, error)
	CharacterRecent(ctx context.Context, name string) ([]model.PlayResult, error)
	ScoreRanking(ctx context.Context) (*report.ScoreRanking, error)
	TotalPlayState(ctx context.Context) (*report.TotalPlayState, error)
	DailyPlaySummary(ctx context.Context) ([]report.DailyPlay, error)
}

// Config configures a Server.
type Config struct {
	// NotebookID is the database whose notes are play records. Webhooks for
	// other notebooks are ignored.
	NotebookID     string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	cfg      Config
	notes    NoteProcessor
	analyzer ScreenshotAnalyzer
	reports  Reports
	notifier notify.Notifier
	catalog  *catalog.Catalog
}

// NewServer creates a Server. A nil notifier discards failure
// notifications.
func NewServer(cfg Config, notes NoteProcessor, analyzer ScreenshotAnalyzer, reports Reports, notifier notify.Notifier) *Server {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &Server{
		cfg:      cfg,
		notes:    notes,
		analyzer: analyzer,
		reports:  reports,
		notifier: notifier,
		catalog:  catalog.Default(),
	}
}

// Handler returns the router serving every endpoint.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", s.handle(s.home))

	r.Get("/webhook/notes", s.handle(s.webhook))
	r.Post("/webhook/notes", s.handle(s.webhook))

	r.Route("/analyze", func(r chi.Router) {
		r.Post("/screenshot", s.handle(s.analyzeScreenshot))
		r.Get("/note", s.handle(s.analyzeNote))
	})

	r.Get("/reports/score-per-armlevel", s.handle(s.scorePerArmlevel))
	r.Route("/characters", func(r chi.Router) {
		r.Get("/", s.handle(s.characterList))
		r.Get("/{characterName}", s.handle(s.characterSummary))
		r.Get("/{characterName}/recent", s.handle(s.characterRecent))
	})
	r.Get("/ranking", s.handle(s.scoreRanking))
	r.Get("/total", s.handle(s.totalPlayState))
	r.Get("/daily", s.handle(s.dailyPlaySummary))

	return r
}
