package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/linguafluent/linguafluent/internal/conversation"
	"github.com/linguafluent/linguafluent/internal/orchestrator"
	"github.com/linguafluent/linguafluent/internal/store"
)

// JSON bodies for the control surface. The domain types stay tag-free; the
// HTTP layer owns the wire shape.

type snapshotJSON struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	StartedAt       time.Time `json:"started_at"`
	Speaker         string    `json:"speaker"`
	SourceLanguage  string    `json:"source_language"`
	TargetLanguage  string    `json:"target_language"`
	RunningAccuracy int       `json:"running_accuracy"`
	ElapsedSeconds  int       `json:"elapsed_seconds"`
	MessageCount    int       `json:"message_count"`
}

type messageJSON struct {
	ID             string    `json:"id"`
	Seq            int       `json:"seq"`
	Speaker        string    `json:"speaker"`
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	Confidence     int       `json:"confidence"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	Timestamp      time.Time `json:"timestamp"`
}

type sessionHeaderJSON struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	StartedAt      time.Time `json:"started_at"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func toSnapshotJSON(s conversation.Snapshot) snapshotJSON {
	return snapshotJSON{
		ID:              s.ID,
		Title:           s.Title,
		StartedAt:       s.StartedAt,
		Speaker:         string(s.Speaker),
		SourceLanguage:  s.SourceLanguage,
		TargetLanguage:  s.TargetLanguage,
		RunningAccuracy: s.RunningAccuracy,
		ElapsedSeconds:  s.ElapsedSeconds,
		MessageCount:    s.MessageCount,
	}
}

func toMessageJSON(m conversation.Message) messageJSON {
	return messageJSON{
		ID:             m.ID,
		Seq:            m.Seq,
		Speaker:        string(m.Speaker),
		OriginalText:   m.OriginalText,
		TranslatedText: m.TranslatedText,
		Confidence:     m.Confidence,
		SourceLanguage: m.SourceLanguage,
		TargetLanguage: m.TargetLanguage,
		Timestamp:      m.Timestamp,
	}
}

func toMessagesJSON(msgs []conversation.Message) []messageJSON {
	out := make([]messageJSON, len(msgs))
	for i, m := range msgs {
		out[i] = toMessageJSON(m)
	}
	return out
}

// registerRoutes attaches the session control API to mux.
func (a *App) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/session", a.handleStartSession)
	mux.HandleFunc("DELETE /v1/session", a.handleEndSession)
	mux.HandleFunc("GET /v1/session", a.handleSnapshot)
	mux.HandleFunc("GET /v1/session/messages", a.handleSessionMessages)
	mux.HandleFunc("POST /v1/session/switch", a.handleSwitchSpeaker)
	mux.HandleFunc("POST /v1/session/text", a.handleSubmitText)
	mux.HandleFunc("POST /v1/session/capture", a.handleStartCapture)
	mux.HandleFunc("DELETE /v1/session/capture", a.handleStopCapture)
	mux.HandleFunc("GET /v1/sessions", a.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}/messages", a.handleListMessages)
}

func (a *App) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title          string `json:"title"`
		SourceLanguage string `json:"source_language"`
		TargetLanguage string `json:"target_language"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid JSON body"})
			return
		}
	}
	snap, err := a.sessions.StartSession(r.Context(), SessionParams{
		Title:          body.Title,
		SourceLanguage: body.SourceLanguage,
		TargetLanguage: body.TargetLanguage,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSnapshotJSON(snap))
}

func (a *App) handleEndSession(w http.ResponseWriter, r *http.Request) {
	snap, err := a.sessions.EndSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotJSON(snap))
}

func (a *App) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, err := a.sessions.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotJSON(snap))
}

func (a *App) handleSessionMessages(w http.ResponseWriter, _ *http.Request) {
	msgs, err := a.sessions.Messages()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessagesJSON(msgs))
}

func (a *App) handleSwitchSpeaker(w http.ResponseWriter, _ *http.Request) {
	snap, err := a.sessions.SwitchSpeaker()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotJSON(snap))
}

func (a *App) handleSubmitText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid JSON body"})
		return
	}
	msg, err := a.sessions.SubmitText(r.Context(), body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageJSON(msg))
}

func (a *App) handleStartCapture(w http.ResponseWriter, r *http.Request) {
	// The capture stream must outlive this request; it is tied to the
	// session, not to the HTTP round trip.
	if err := a.sessions.StartCapture(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"state": orchestrator.CaptureListening.String()})
}

func (a *App) handleStopCapture(w http.ResponseWriter, _ *http.Request) {
	if err := a.sessions.StopCapture(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": orchestrator.CaptureIdle.String()})
}

func (a *App) handleListSessions(w http.ResponseWriter, r *http.Request) {
	headers, err := a.sessions.ListSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]sessionHeaderJSON, len(headers))
	for i, h := range headers {
		out[i] = sessionHeaderJSON{
			ID:             h.ID,
			Title:          h.Title,
			SourceLanguage: h.SourceLanguage,
			TargetLanguage: h.TargetLanguage,
			StartedAt:      h.StartedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleListMessages(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{SessionID: r.PathValue("id")}

	q := r.URL.Query()
	if sp := q.Get("speaker"); sp != "" {
		speaker := conversation.Speaker(sp)
		if !speaker.IsValid() {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "speaker must be A or B"})
			return
		}
		f.Speaker = speaker
	}
	if lim := q.Get("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "limit must be a non-negative integer"})
			return
		}
		f.Limit = n
	}
	for name, dst := range map[string]*time.Time{"after": &f.After, "before": &f.Before} {
		if raw := q.Get(name); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorJSON{Error: name + " must be RFC 3339"})
				return
			}
			*dst = ts
		}
	}

	msgs, err := a.sessions.ListMessages(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessagesJSON(msgs))
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNoSession):
		status = http.StatusNotFound
	case errors.Is(err, orchestrator.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, orchestrator.ErrEmptyInput),
		errors.Is(err, ErrInvalidLanguagePair):
		status = http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrPipelineBusy),
		errors.Is(err, orchestrator.ErrAlreadyActive):
		status = http.StatusConflict
	case errors.Is(err, orchestrator.ErrCapabilityUnavailable),
		errors.Is(err, orchestrator.ErrStorage):
		status = http.StatusServiceUnavailable
	case errors.Is(err, orchestrator.ErrTranslationEngine),
		errors.Is(err, orchestrator.ErrCaptureFailed):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorJSON{Error: err.Error()})
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}
