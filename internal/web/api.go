package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/history"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/overlay"
	"github.com/MrWong99/elocute/internal/recording"
	"github.com/MrWong99/elocute/internal/render"
	"github.com/MrWong99/elocute/internal/session"
)

// progressHeader carries the progress bar value on fragment responses.
const progressHeader = "X-Elocute-Progress"

type sentenceBody struct {
	Sentence string `json:"sentence"`
	Progress int    `json:"progress"`
}

func (s *Server) handleGetSentence(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sentenceBody{Sentence: s.Manager.Sentence(), Progress: s.Manager.Progress()})
}

func (s *Server) handlePutSentence(w http.ResponseWriter, r *http.Request) {
	var body sentenceBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.Manager.SetSentence(body.Sentence); err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a sentence to practice.")
		return
	}
	s.handleGetSentence(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Manager.Reset()
	s.handleGetSentence(w, r)
}

func (s *Server) handleSaveRecording(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, err := s.Recordings.Save(req.Audio, s.sentenceFor(req))
	switch {
	case errors.Is(err, analysis.ErrNoAudio):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		observe.Logger(r.Context()).Error("save recording", "err", err)
		writeError(w, http.StatusInternalServerError, "could not save recording")
		return
	}
	if s.Metrics != nil {
		s.Metrics.RecordRecording(r.Context(), saved.Bytes)
	}
	writeJSON(w, http.StatusOK, savedBody{Success: true, Saved: saved})
}

type savedBody struct {
	Success bool `json:"success"`
	recording.Saved
}

// sentenceFor falls back to the current practice sentence.
func (s *Server) sentenceFor(req analysis.Request) string {
	if strings.TrimSpace(req.Sentence) != "" {
		return req.Sentence
	}
	return s.Manager.Sentence()
}

// handleAnalyze saves the recording, runs the analyzer, records the attempt
// and answers with the rendered feedback fragment.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Sentence = s.sentenceFor(req)

	ctx, span := observe.StartSpan(r.Context(), "analyze")
	defer span.End()
	log := observe.Logger(ctx)

	var file string
	if saved, err := s.Recordings.Save(req.Audio, req.Sentence); err == nil {
		file = saved.Filename
		if s.Metrics != nil {
			s.Metrics.RecordRecording(ctx, saved.Bytes)
		}
	} else if !errors.Is(err, analysis.ErrNoAudio) {
		log.Warn("analyze: recording not saved", "err", err)
	}

	start := time.Now()
	res, err := s.Analyzer.Analyze(ctx, req)
	status := "ok"
	switch {
	case err != nil:
		log.Error("analyze: analyzer failed", "err", err)
		res = analysis.Failure(err)
		status = "error"
	case !res.Success:
		status = "rejected"
	}
	if res.Sentence == "" {
		res.Sentence = req.Sentence
	}
	span.SetAttributes(attribute.String("analysis.status", status), attribute.Int("analysis.corrections", len(res.Corrections)))
	if s.Metrics != nil {
		s.Metrics.RecordAnalysis(ctx, s.AnalyzerName, status, time.Since(start).Seconds())
	}

	if err := s.Manager.ShowResult(res); err != nil {
		log.Warn("analyze: corrections rejected", "err", err)
	}
	if s.History != nil {
		if err := s.History.Append(ctx, history.NewRecord(req.Sentence, res, file)); err != nil {
			log.Warn("analyze: history not recorded", "err", err)
		}
	}
	s.writeFeedback(w, r)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	s.writeFeedback(w, r)
}

// writeFeedback renders the current result panel.
func (s *Server) writeFeedback(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := s.Manager.Render(func(f render.Feedback) error {
		return s.Renderer.Feedback(&buf, f)
	})
	switch {
	case errors.Is(err, session.ErrNoResult):
		writeError(w, http.StatusNotFound, "no analysis result")
		return
	case err != nil:
		observe.Logger(r.Context()).Error("render feedback", "err", err)
		writeError(w, http.StatusInternalServerError, "could not render feedback")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(progressHeader, strconv.Itoa(s.Manager.Progress()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	_, err := s.Manager.Next(r.Context())
	s.afterNavigate(w, r, err)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	_, err := s.Manager.Previous(r.Context())
	s.afterNavigate(w, r, err)
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	_, err = s.Manager.Jump(r.Context(), i)
	s.afterNavigate(w, r, err)
}

func (s *Server) afterNavigate(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNoResult):
		writeError(w, http.StatusNotFound, "no analysis result")
	case errors.Is(err, overlay.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, overlay.ErrCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeFeedback(w, r)
	}
}

type hoverBody struct {
	Aid     int   `json:"aid"`
	Targets []int `json:"targets"`
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	aid, err := strconv.Atoi(r.PathValue("aid"))
	if err != nil || aid < 0 {
		writeError(w, http.StatusBadRequest, "aid must be a non-negative integer")
		return
	}
	targets, err := s.Manager.Hover(aid)
	if err != nil {
		writeError(w, http.StatusNotFound, "no analysis result")
		return
	}
	if targets == nil {
		targets = []int{}
	}
	writeJSON(w, http.StatusOK, hoverBody{Aid: aid, Targets: targets})
}

func (s *Server) handleUnhover(w http.ResponseWriter, _ *http.Request) {
	s.Manager.Unhover()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeJSON(w, http.StatusOK, []history.Record{})
		return
	}
	limit := history.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	recs, err := s.History.Recent(r.Context(), limit)
	if err != nil {
		observe.Logger(r.Context()).Error("history: recent", "err", err)
		writeError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}
