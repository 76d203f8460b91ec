// Package web serves the practice page and its API: the sentence, the live
// capture socket, recording upload, analysis and correction overlay
// navigation, plus history and the operational endpoints.
package web

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"os"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/health"
	"github.com/MrWong99/elocute/internal/history"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/recording"
	"github.com/MrWong99/elocute/internal/render"
	"github.com/MrWong99/elocute/internal/session"
)

//go:embed static
var staticFS embed.FS

// maxBodyBytes bounds JSON request bodies. Recordings arrive base64 encoded
// inside them.
const maxBodyBytes = 32 << 20

// Deps are the collaborators of a [Server].
type Deps struct {
	Manager      *session.Manager
	Analyzer     analysis.Analyzer
	AnalyzerName string
	Recordings   *recording.Store
	History      history.Store
	Renderer     *render.HTML

	// Metrics is optional.
	Metrics *observe.Metrics

	// Health serves /healthz and /readyz. Optional.
	Health *health.Handler

	// MetricsHandler serves /metrics. Optional.
	MetricsHandler http.Handler

	// StaticDir replaces the embedded page assets when set.
	StaticDir string

	// VisemeDir is served at /visemes/. Optional.
	VisemeDir string
}

// Server routes the practice API.
type Server struct {
	Deps
	mux *http.ServeMux
}

// New builds a Server and registers every route.
func New(d Deps) *Server {
	s := &Server{Deps: d, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the root handler, wrapped in the observability
// middleware when metrics are configured.
func (s *Server) Handler() http.Handler {
	if s.Metrics == nil {
		return s.mux
	}
	return observe.Middleware(s.Metrics)(s.mux)
}

func (s *Server) routes() {
	assets := s.assets()
	s.mux.Handle("GET /", http.FileServerFS(assets))
	if s.VisemeDir != "" {
		s.mux.Handle("GET /visemes/", http.StripPrefix("/visemes/", http.FileServer(http.Dir(s.VisemeDir))))
	}

	s.mux.HandleFunc("GET /api/sentence", s.handleGetSentence)
	s.mux.HandleFunc("PUT /api/sentence", s.handlePutSentence)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)
	s.mux.HandleFunc("GET /ws/capture", s.handleCapture)
	s.mux.HandleFunc("POST /api/recordings", s.handleSaveRecording)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/feedback", s.handleFeedback)
	s.mux.HandleFunc("POST /api/overlay/next", s.handleNext)
	s.mux.HandleFunc("POST /api/overlay/prev", s.handlePrev)
	s.mux.HandleFunc("POST /api/overlay/jump/{index}", s.handleJump)
	s.mux.HandleFunc("POST /api/overlay/hover/{aid}", s.handleHover)
	s.mux.HandleFunc("DELETE /api/overlay/hover", s.handleUnhover)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)

	if s.Health != nil {
		s.Health.Register(s.mux)
	}
	if s.MetricsHandler != nil {
		s.mux.Handle("GET /metrics", s.MetricsHandler)
	}
}

func (s *Server) assets() fs.FS {
	if s.StaticDir != "" {
		return os.DirFS(s.StaticDir)
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: embedded static dir missing: " + err.Error())
	}
	return sub
}

// apiError is the JSON body of every 4xx/5xx API response.
type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
