package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

func (s *Server) home(*http.Request) (any, error) {
	html, err := s.reports.HomePage()
	if err != nil {
		return nil, err
	}
	return page(html), nil
}

func (s *Server) scorePerArmlevel(r *http.Request) (any, error) {
	html, err := s.reports.ScorePerArmlevel(r.Context())
	if err != nil {
		return nil, err
	}
	return page(html), nil
}

func (s *Server) characterList(r *http.Request) (any, error) {
	return s.reports.CharacterList(r.Context())
}

func (s *Server) characterSummary(r *http.Request) (any, error) {
	name, err := characterName(r)
	if err != nil {
		return nil, err
	}
	return s.reports.CharacterSummary(r.Context(), name)
}

func (s *Server) characterRecent(r *http.Request) (any, error) {
	name, err := characterName(r)
	if err != nil {
		return nil, err
	}
	return s.reports.CharacterRecent(r.Context(), name)
}

func (s *Server) scoreRanking(r *http.Request) (any, error) {
	return s.reports.ScoreRanking(r.Context())
}

func (s *Server) totalPlayState(r *http.Request) (any, error) {
	return s.reports.TotalPlayState(r.Context())
}

func (s *Server) dailyPlaySummary(r *http.Request) (any, error) {
	return s.reports.DailyPlaySummary(r.Context())
}

// characterName returns the decoded name path parameter. chi matches on
// RawPath when it is set, so only then is the parameter still escaped. A
// value that does not unescape is passed on as is and later fails the
// catalog check.
func characterName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "characterName")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	if name == "" {
		return "", invalid("Path parameter 'characterName' is missing.")
	}
	return name, nil
}
