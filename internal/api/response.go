package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"portfolioai/pkg/portfolioai"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// messageGenerationFailed hides provider details from API callers; the cause
// is logged instead.
const messageGenerationFailed = "failed to generate analysis"

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if lw, ok := w.(interface{ SetErrorMessage(string) }); ok {
		lw.SetErrorMessage(message)
	}
	response := ErrorResponse{Code: status, Message: message}
	if r != nil {
		response.RequestID = middleware.GetReqID(r.Context())
	}
	writeJSON(w, status, response)
}

// writeErrorResponse maps coded errors to an HTTP status. Errors without a
// code are internal.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status, message, code := describeError(err)
	if lw, ok := w.(interface{ SetErrorMessage(string) }); ok {
		lw.SetErrorMessage(err.Error())
	}
	writeJSON(w, status, ErrorResponse{
		Code:      status,
		Message:   message,
		ErrorCode: code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func describeError(err error) (status int, message, code string) {
	var coded *portfolioai.Error
	if !errors.As(err, &coded) {
		return http.StatusInternalServerError, "internal server error", string(portfolioai.ErrCodeInternal)
	}
	status = mapErrorCodeToHTTPStatus(coded.Code)
	message = coded.Message
	switch coded.Code {
	case portfolioai.ErrCodeGeneration:
		message = messageGenerationFailed
	case portfolioai.ErrCodeInvalidInput, portfolioai.ErrCodeProviderConfig:
		if coded.Err != nil {
			message = coded.Message + ": " + coded.Err.Error()
		}
	}
	return status, message, string(coded.Code)
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code portfolioai.ErrorCode) int {
	switch code {
	case portfolioai.ErrCodeInvalidInput, portfolioai.ErrCodeProviderConfig:
		return http.StatusBadRequest
	case portfolioai.ErrCodeGeneration:
		return http.StatusBadGateway
	case portfolioai.ErrCodeDatabase, portfolioai.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
