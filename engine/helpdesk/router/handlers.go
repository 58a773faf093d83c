// Package router exposes the helpdesk operations over HTTP.
package router

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/compozy/helpdesk/engine/escalation"
	"github.com/compozy/helpdesk/engine/helpdesk"
	"github.com/compozy/helpdesk/engine/infra/server/router"
	"github.com/compozy/helpdesk/engine/infra/server/routes"
	"github.com/compozy/helpdesk/pkg/logger"
)

const (
	msgEmptyQuery      = "Query cannot be empty"
	msgEmptyQuestion   = "Question cannot be empty"
	msgMissingQuery    = "Missing original query"
	msgInvalidBody     = "Invalid request body"
	prefixQueryError   = "Error processing query"
	prefixQuestionErr  = "Error processing question"
	prefixEscalateErr  = "Error generating email"
	statusRunning      = "running"
	statusHealthy      = "healthy"
	logQueryPreviewLen = 50
)

// Service is the subset of the helpdesk facade the handlers call.
type Service interface {
	Ask(ctx context.Context, query string) (string, error)
	Escalate(ctx context.Context, req helpdesk.EscalationRequest) (*escalation.Draft, error)
}

type Handlers struct {
	service     Service
	serviceName string
	metricsPath string
}

func NewHandlers(service Service, serviceName, metricsPath string) *Handlers {
	return &Handlers{service: service, serviceName: serviceName, metricsPath: metricsPath}
}

// Register mounts every helpdesk route on r.
func Register(r gin.IRouter, h *Handlers) {
	r.GET(routes.Root(), h.Root)
	r.GET(routes.Health(), h.Health)
	r.POST(routes.Chat(), h.Chat)
	r.POST(routes.AskAgent(), h.AskAgent)
	r.POST(routes.Escalate(), h.Escalate)
}

// Root describes the service and lists its endpoints.
func (h *Handlers) Root(c *gin.Context) {
	endpoints := gin.H{
		"chat":     "POST " + routes.Chat(),
		"escalate": "POST " + routes.Escalate(),
		"health":   "GET " + routes.Health(),
	}
	if h.metricsPath != "" {
		endpoints["metrics"] = "GET " + h.metricsPath
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    statusRunning,
		"service":   h.serviceName,
		"endpoints": endpoints,
	})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusHealthy, "service": h.serviceName})
}

// Chat answers {"query": ...} from the indexed documents.
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, router.BadRequest(msgInvalidBody, err))
		return
	}
	h.answer(c, req.Query, msgEmptyQuery, prefixQueryError)
}

// AskAgent is the legacy form of Chat. It reads "question" and falls back
// to "query".
func (h *Handlers) AskAgent(c *gin.Context) {
	var req AskAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, router.BadRequest(msgInvalidBody, err))
		return
	}
	question := req.Question
	if question == "" {
		question = req.Query
	}
	h.answer(c, question, msgEmptyQuestion, prefixQuestionErr)
}

func (h *Handlers) answer(c *gin.Context, query, emptyMsg, errPrefix string) {
	ctx := c.Request.Context()
	if strings.TrimSpace(query) == "" {
		router.RespondWithError(c, router.BadRequest(emptyMsg, helpdesk.ErrEmptyQuery))
		return
	}
	log := logger.FromContext(ctx)
	log.Info("Processing query", "query", preview(query))
	answer, err := h.service.Ask(ctx, query)
	if err != nil {
		respondServiceError(c, err, emptyMsg, errPrefix)
		return
	}
	log.Info("Query processed")
	c.JSON(http.StatusOK, AnswerResponse{Answer: answer})
}

// Escalate drafts an email to the helpdesk from the student's data.
func (h *Handlers) Escalate(c *gin.Context) {
	var req EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, router.BadRequest(msgInvalidBody, err))
		return
	}
	ctx := c.Request.Context()
	logger.FromContext(ctx).Info("Generating helpdesk email",
		"name", req.Name,
		"surname", req.Surname,
		"student_id", req.StudentID,
	)
	draft, err := h.service.Escalate(ctx, helpdesk.EscalationRequest{
		Query:     req.Query,
		RAGAnswer: req.RAGAnswer,
		Identity: escalation.Identity{
			FirstName: req.Name,
			LastName:  req.Surname,
			StudentID: req.StudentID,
			Email:     req.Email,
		},
	})
	if err != nil {
		respondServiceError(c, err, msgMissingQuery, prefixEscalateErr)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func respondServiceError(c *gin.Context, err error, clientMsg, errPrefix string) {
	if helpdesk.IsClientError(err) {
		router.RespondWithError(c, router.BadRequest(clientMsg, err))
		return
	}
	cause := err
	var upstream *helpdesk.UpstreamError
	if errors.As(err, &upstream) && upstream.Err != nil {
		cause = upstream.Err
	}
	router.RespondWithError(c, router.Internal(errPrefix, cause))
}

func preview(query string) string {
	runes := []rune(query)
	if len(runes) <= logQueryPreviewLen {
		return query
	}
	return string(runes[:logQueryPreviewLen]) + "..."
}
