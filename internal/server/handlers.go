package server

import (
	"codetransform/internal/domain"
	"codetransform/internal/generator"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	noResponseMessage = "No response from the model"

	problemTypeBadRequest = "https://tools.ietf.org/html/rfc9110#section-15.5.1"
	problemTypeInternal   = "https://tools.ietf.org/html/rfc9110#section-15.6.1"
)

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(c *gin.Context, status int, typ, title, detail string) {
	body, err := json.Marshal(problem{
		Type:   typ,
		Title:  title,
		Status: status,
		Detail: detail,
	})
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Data(status, "application/problem+json", body)
}

func (s *Server) handleTransform(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeProblem(c, http.StatusBadRequest, problemTypeBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := s.validateRequest(req); err != nil {
		writeProblem(c, http.StatusBadRequest, problemTypeBadRequest, "Invalid request body", err.Error())
		return
	}

	result, err := s.transformer.Generate(ctx, req)
	if errors.Is(err, generator.ErrNoCandidates) {
		c.JSON(http.StatusNotFound, noResponseMessage)
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to execute prompt",
			"error", err,
			"sourceURL", req.SourceURL,
			"sourceType", req.SourceType.String(),
			"requestID", domain.RequestIDFromContext(ctx))

		writeProblem(c, http.StatusInternalServerError, problemTypeInternal, summary(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.index)
}

func (s *Server) validateRequest(req domain.TransformRequest) error {
	var errs []error

	if strings.TrimSpace(req.Prompt) == "" {
		errs = append(errs, errors.New("prompt is required"))
	}

	if !req.SourceType.Valid() {
		errs = append(errs, errors.New("sourceType must be File or Repository"))
	}

	if !s.isSourceURL(req.SourceURL) {
		errs = append(errs, errors.New("sourceUrl must be a single http(s) URL"))
	}

	return errors.Join(errs...)
}

// isSourceURL reports whether raw is exactly one absolute http(s) URL.
func (s *Server) isSourceURL(raw string) bool {
	if raw == "" || s.sourceURLRe.FindString(raw) != raw {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// summary is the outermost message of an error chain, used as a problem
// title.
func summary(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i > 0 {
		return msg[:i]
	}

	return msg
}
