package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"portfolioai/pkg/portfolioai"
)

const maxBodyBytes = 4 << 20

var stageMessages = map[portfolioai.Stage]string{
	portfolioai.StagePrompting:     "building analysis prompt",
	portfolioai.StageAwaitingModel: "waiting for model response",
	portfolioai.StageParsing:       "parsing model response",
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.core.GetAISettings(r.Context())
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// setAISettings updates only the fields present in the payload.
func (h *handler) setAISettings(w http.ResponseWriter, r *http.Request) {
	var payload aiSettingsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := h.core.GetAISettings(r.Context())
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	if payload.Provider != nil {
		settings.Provider = *payload.Provider
	}
	if payload.BaseURL != nil {
		settings.BaseURL = *payload.BaseURL
	}
	if payload.Model != nil {
		settings.Model = *payload.Model
	}
	if payload.Temperature != nil {
		settings.Temperature = *payload.Temperature
	}
	if payload.MaxTokens != nil {
		settings.MaxTokens = *payload.MaxTokens
	}

	saved, err := h.core.SetAISettings(r.Context(), settings)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	var payload analysisPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.core.Analyze(r.Context(), payload.options())
	if err != nil {
		h.logAnalysisFailure(payload, err)
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handler) analyzeStream(w http.ResponseWriter, r *http.Request) {
	var payload analysisPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// Reject bad input before switching to an event stream.
	if err := portfolioai.ValidateRequest(payload.AnalysisRequest); err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	initSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	opts := payload.options()
	opts.OnStage = func(stage portfolioai.Stage) {
		if err := writeSSEEvent(w, flusher, "progress", progressEvent{
			Stage:   string(stage),
			Message: stageMessages[stage],
		}); err != nil {
			h.logger.Warn("analysis stream write failed", "stage", stage, "err", err)
		}
	}

	run, err := h.core.Analyze(r.Context(), opts)
	if err != nil {
		h.logAnalysisFailure(payload, err)
		_, message, code := describeError(err)
		_ = writeSSEEvent(w, flusher, "error", streamErrorEvent{Error: message, ErrorCode: code})
		_ = writeSSEEvent(w, flusher, "done", map[string]any{"ok": false})
		return
	}

	_ = writeSSEEvent(w, flusher, "result", run)
	_ = writeSSEEvent(w, flusher, "done", map[string]any{"ok": true})
}

func (h *handler) renderPrompt(w http.ResponseWriter, r *http.Request) {
	var payload analysisPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := portfolioai.ValidateRequest(payload.AnalysisRequest); err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	symbols := make([]string, 0, len(payload.StockQuotes))
	for _, quote := range payload.StockQuotes {
		symbols = append(symbols, quote.Symbol)
	}
	writeJSON(w, http.StatusOK, promptResponse{
		Prompt:  portfolioai.BuildPrompt(payload.AnalysisRequest),
		Symbols: symbols,
	})
}

func (h *handler) logAnalysisFailure(payload analysisPayload, err error) {
	fields := []any{
		"provider", payload.Provider,
		"model", payload.Model,
		"base_url", payload.BaseURL,
		"quotes", len(payload.StockQuotes),
		"err", err,
	}
	if portfolioai.IsErrorCode(err, portfolioai.ErrCodeInvalidInput) {
		h.logger.Warn("analysis rejected", fields...)
		return
	}
	h.logger.Error("analysis failed", fields...)
}

func initSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + event + "\n")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// Helpers.

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
