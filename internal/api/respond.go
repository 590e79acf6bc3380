package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/timelocker/tracker/internal/notify"
)

const notifyTimeout = 10 * time.Second

// message is the body of webhook answers and validation failures.
type message struct {
	Message string `json:"message"`
}

type errorBody struct {
	ErrorMessage string `json:"errorMessage"`
}

// page is a rendered HTML document.
type page []byte

// handlerFunc produces a response body or an error. A page body is written
// as HTML, anything else as JSON.
type handlerFunc func(r *http.Request) (any, error)

func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := fn(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if html, ok := body.(page); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write(html) //nolint:errcheck
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	route := routePattern(r)
	if statusOf(err) == http.StatusBadRequest {
		zap.L().Info("api: invalid request", zap.String("route", route), zap.String("reason", err.Error()))
		writeJSON(w, http.StatusBadRequest, message{Message: err.Error()})
		return
	}

	f := notify.NewFailure(middleware.GetReqID(r.Context()), r.Method, route, err)
	zap.L().Error("api: request failed",
		zap.String("request_id", f.RequestID),
		zap.String("method", r.Method),
		zap.String("route", route),
		zap.Error(err),
	)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), notifyTimeout)
	defer cancel()
	if nerr := s.notifier.Notify(ctx, f); nerr != nil {
		zap.L().Warn("api: failure notification not delivered",
			zap.String("request_id", f.RequestID),
			zap.Error(nerr),
		)
	}

	writeJSON(w, http.StatusInternalServerError, errorBody{ErrorMessage: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
