package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/coder/websocket"

	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/visualize"
	"github.com/MrWong99/elocute/pkg/audio"
)

// captureReadLimit bounds one inbound PCM message.
const captureReadLimit = 1 << 20

// barsMessage is pushed to the page once per waveform tick.
type barsMessage struct {
	Bars []float64 `json:"bars"`
}

// parseFormat reads the optional rate and channels query parameters.
func parseFormat(q url.Values) (audio.Format, error) {
	var f audio.Format
	var err error
	if v := q.Get("rate"); v != "" {
		if f.SampleRate, err = strconv.Atoi(v); err != nil || f.SampleRate <= 0 || f.SampleRate > 384000 {
			return f, fmt.Errorf("invalid rate %q", v)
		}
	}
	if v := q.Get("channels"); v != "" {
		if f.Channels, err = strconv.Atoi(v); err != nil || f.Channels < 1 || f.Channels > 8 {
			return f, fmt.Errorf("invalid channels %q", v)
		}
	}
	return f, nil
}

// handleCapture runs one recording cycle over a websocket. Binary messages
// are little-endian int16 PCM; text messages carry bar intensities back.
// Closing the socket ends the recording.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	format, err := parseFormat(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("capture: websocket accept failed", "err", err)
		return
	}
	conn.SetReadLimit(captureReadLimit)
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := observe.Logger(ctx)

	sink := visualize.SinkFunc(func(ctx context.Context, bars []float64) error {
		data, err := json.Marshal(barsMessage{Bars: bars})
		if err != nil {
			return err
		}
		return conn.Write(ctx, websocket.MessageText, data)
	})

	p, err := s.Manager.StartPractice(ctx, format, sink)
	if err != nil {
		log.Error("capture: start practice", "err", err)
		conn.Close(websocket.StatusInternalError, "could not start recording")
		return
	}

	// A newer recording or a sentence change ends this one.
	go func() {
		select {
		case <-p.Ended():
			conn.Close(websocket.StatusNormalClosure, "recording ended")
		case <-ctx.Done():
		}
	}()

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				log.Debug("capture: read ended", "practice_id", p.ID, "err", err)
			}
			break
		}
		if typ == websocket.MessageBinary {
			p.Write(data)
		}
	}

	if err := s.Manager.StopPractice(p.ID); err == nil {
		conn.Close(websocket.StatusNormalClosure, "recording stopped")
	}
}
