// Package api exposes the voicegate HTTP surface: POST /generate for shaped
// turns and GET /version for engine identity.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"voicegate/internal/config"
	"voicegate/internal/engine"
	"voicegate/internal/session"
	"voicegate/internal/trace"
	"voicegate/internal/voice"
)

// Error codes carried in failure payloads.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInferenceFailed = "INFERENCE_FAILED"
)

// SessionHeader selects the conversation a request belongs to. Absent or
// empty, the default session is used.
const SessionHeader = "X-Session-ID"

// generateRequest is the POST /generate body. Unknown fields are rejected.
type generateRequest struct {
	Prompt        string `json:"prompt"`
	EmotionalLang string `json:"emotional_lang,omitempty"`
}

// generateResponse is the sealed turn output: final text plus its decision
// trace, nothing else.
type generateResponse struct {
	ResponseText string      `json:"response_text"`
	Trace        trace.Trace `json:"trace"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type versionResponse struct {
	EngineName    string `json:"engine_name"`
	EngineVersion string `json:"engine_version"`
	ReleaseStage  string `json:"release_stage"`
}

// Handler serves the voicegate endpoints.
type Handler struct {
	Engine   *engine.Engine
	Sessions *session.Manager
	Identity config.EngineConfig
	// MaxPromptChars caps prompt length in runes; zero disables the cap.
	MaxPromptChars int
	Logger         *zap.Logger
}

// Generate handles POST /generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", CodeInvalidInput)
		return
	}

	req, errMsg := h.decodeGenerateRequest(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg, CodeInvalidInput)
		return
	}

	sessionID := r.Header.Get(SessionHeader)

	var result *engine.TurnResult
	turnErr := h.Sessions.WithSession(sessionID, func(state *voice.SessionState) error {
		var err error
		result, err = h.Engine.Generate(r.Context(), state, req.Prompt, req.EmotionalLang)
		return err
	})
	if turnErr != nil {
		h.logger().Error("turn failed",
			zap.String("session_id", sessionID),
			zap.Error(turnErr))
		writeError(w, http.StatusInternalServerError, "inference failed", CodeInferenceFailed)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		ResponseText: result.ResponseText,
		Trace:        result.Trace,
	})
}

// decodeGenerateRequest validates the request body. It returns a non-empty
// message on rejection.
func (h *Handler) decodeGenerateRequest(r *http.Request) (generateRequest, string) {
	var req generateRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, "request body must be a JSON object"
	}
	if dec.More() {
		return req, "request body must contain a single JSON object"
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return req, "prompt must be a non-empty string"
	}
	if h.MaxPromptChars > 0 && len([]rune(req.Prompt)) > h.MaxPromptChars {
		return req, "prompt exceeds maximum length"
	}
	if req.EmotionalLang != "" && req.EmotionalLang != "en" && req.EmotionalLang != "hi" {
		return req, "emotional_lang must be \"en\" or \"hi\""
	}
	return req, ""
}

// Version handles GET /version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", CodeInvalidInput)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{
		EngineName:    h.Identity.Name,
		EngineVersion: h.Identity.Version,
		ReleaseStage:  h.Identity.ReleaseStage,
	})
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}
