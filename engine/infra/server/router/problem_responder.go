package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/compozy/helpdesk/engine/core"
	"github.com/compozy/helpdesk/pkg/logger"
)

const problemContentType = "application/problem+json"

// RespondProblem writes a canonical RFC 7807 error response.
func RespondProblem(c *gin.Context, problem *core.Problem) {
	prepared := core.NormalizeProblem(problem)
	body := core.BuildProblemBody(prepared)
	writeProblemResponse(c, prepared, body)
}

// RespondProblemWithCode writes a problem response embedding a code and detail.
func RespondProblemWithCode(c *gin.Context, status int, code string, detail string) {
	RespondProblem(c, &core.Problem{
		Status: status,
		Title:  http.StatusText(status),
		Detail: detail,
		Extras: map[string]any{"code": code},
	})
}

// RespondWithError maps err to a problem response. Errors that are not a
// RequestError become a generic 500.
func RespondWithError(c *gin.Context, err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = NewRequestError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), err)
	}
	RespondProblemWithCode(c, reqErr.StatusCode, reqErr.Code(), reqErr.Reason)
}

// ErrorHandler renders errors attached with c.Error when no response was
// written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RespondWithError(c, c.Errors.Last().Err)
	}
}

func writeProblemResponse(c *gin.Context, problem *core.Problem, body map[string]any) {
	logProblem(c, problem)
	payload, err := json.Marshal(body)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to marshal problem", "error", err)
		fallback := []byte(`{"status":500,"error":"Internal Server Error"}`)
		c.Data(http.StatusInternalServerError, problemContentType, fallback)
		c.Abort()
		return
	}
	c.Data(problem.Status, problemContentType, payload)
	c.Abort()
}

func logProblem(c *gin.Context, problem *core.Problem) {
	log := logger.FromContext(c.Request.Context())
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	fields := []any{
		"status", problem.Status,
		"title", problem.Title,
		"detail", problem.Detail,
		"route", route,
	}
	if code, ok := problem.Extras["code"]; ok {
		fields = append(fields, "code", code)
	}
	if requestID := c.Writer.Header().Get(RequestIDHeader); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if problem.Status >= http.StatusInternalServerError {
		log.Error("Request failed", fields...)
		return
	}
	log.Warn("Request failed", fields...)
}
