// Package handlers implements the ops surface endpoints: scheduler status
// and triggering, and read-only post inspection.
//
// This file defines the standard response utilities shared by all endpoints.
// Every error response is an ErrorResponse with a stable machine-readable
// code; fail() centralizes formatting and makes sure 5xx responses are
// logged with request context.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/http/middleware"
)

// Stable error codes used in ErrorResponse.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeInternalError = "internal_error"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// RequestID correlates server logs and client errors.
	RequestID string `json:"request_id,omitempty"`
	// Code is a stable, machine-readable error code.
	Code string `json:"code"`
	// Message is a human-readable description, safe to display.
	Message string `json:"message"`
}

// fail aborts the request with a structured error, logging 5xx responses
// with request context.
func fail(c *gin.Context, status int, code, message string) {
	rid := c.Writer.Header().Get("X-Request-ID")
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", message).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: rid,
		Code:      code,
		Message:   message,
	})
}

// ok writes a 200 JSON response.
func ok(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
