package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joshharrison/netplanner/internal/activity"
	"github.com/joshharrison/netplanner/internal/engine"
	"github.com/joshharrison/netplanner/internal/records"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "netplanner.logger"
)

// ErrorResponse is the body of every non-2xx response that is not a Result.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ComputeRequest is the body of POST /v1/compute.
type ComputeRequest struct {
	Activities []activity.Activity `json:"activities"`
	Deadline   *float64            `json:"deadline,omitempty"`
	Confidence *float64            `json:"confidence,omitempty"`
}

// ComputeResponse is a Result plus the optional PERT figures requested.
type ComputeResponse struct {
	*engine.Result
	Probability *float64 `json:"probability,omitempty"` // P(finish <= deadline)
	Quantile    *float64 `json:"quantile,omitempty"`    // duration met with the requested confidence
}

// ExportRequest is the body of POST /v1/export.
type ExportRequest struct {
	Activities []activity.Activity `json:"activities"`
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(requestIDHeader, requestID)
	return requestID
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := getOrCreateRequestID(c)
		c.Set(loggerKey, s.logger.With("request_id", id))
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestLogger(c).Info("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && s.cfg.Server.MaxBodyBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxBodyBytes)
		}
		c.Next()
	}
}

func requestLogger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

func abortWithError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// bodyError maps a failure to read or decode the request body to a status.
func bodyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortWithError(c, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err)
		return
	}
	abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
}

// compute runs the engine and records metrics.
func (s *Server) compute(acts []activity.Activity) *engine.Result {
	start := time.Now()
	res := engine.Compute(acts, s.opts)
	s.metrics.observe(len(acts), res, time.Since(start))
	return res
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCompute handles POST /v1/compute.
//
//	200 OK: ComputeResponse
//	400 Bad Request: malformed body or confidence outside (0, 1)
//	422 Unprocessable Entity: ComputeResponse carrying only errors
func (s *Server) handleCompute(c *gin.Context) {
	logger := requestLogger(c).With("handler", "handleCompute")

	var req ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		bodyError(c, err)
		return
	}

	res := s.compute(req.Activities)
	resp := ComputeResponse{Result: res}
	if !res.OK() {
		logger.Info("Computation rejected", "errors", len(res.Errors))
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	if d := res.Distribution; d != nil {
		if req.Deadline != nil {
			p := d.Probability(*req.Deadline)
			resp.Probability = &p
		}
		if req.Confidence != nil {
			q, err := d.Quantile(*req.Confidence)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "INVALID_CONFIDENCE", err)
				return
			}
			resp.Quantile = &q
		}
	}

	logger.Info("Schedule computed",
		"activities", len(res.Activities),
		"method", res.Method,
		"project_duration", res.ProjectDuration,
		"critical_paths", len(res.CriticalPaths))
	c.JSON(http.StatusOK, resp)
}

// handleImport handles POST /v1/import. The body is CSV unless the
// Content-Type names JSON or YAML.
func (s *Server) handleImport(c *gin.Context) {
	logger := requestLogger(c).With("handler", "handleImport")

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		bodyError(c, err)
		return
	}

	report, err := records.Parse(data, importName(c.ContentType()))
	if err != nil {
		logger.Warn("Import failed", "error", err)
		code := "IMPORT_FAILED"
		if errors.Is(err, records.ErrParse) {
			code = "PARSE_ERROR"
		}
		abortWithError(c, http.StatusBadRequest, code, err)
		return
	}

	logger.Info("Records imported", "activities", len(report.Activities), "skipped", report.Skipped)
	c.JSON(http.StatusOK, report)
}

// importName maps a media type to a file name records.Parse can dispatch on.
func importName(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "body.csv"
	}
	switch mediaType {
	case "application/json":
		return "body.json"
	case "application/yaml", "application/x-yaml", "text/yaml":
		return "body.yaml"
	case "application/hcl", "text/hcl":
		return "body.hcl"
	default:
		return "body.csv"
	}
}

// handleExport handles POST /v1/export and returns the computed CSV.
func (s *Server) handleExport(c *gin.Context) {
	logger := requestLogger(c).With("handler", "handleExport")

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		bodyError(c, err)
		return
	}

	res := s.compute(req.Activities)
	if !res.OK() {
		c.JSON(http.StatusUnprocessableEntity, ComputeResponse{Result: res})
		return
	}

	var buf bytes.Buffer
	if err := records.WriteCSV(&buf, res); err != nil {
		logger.Error("CSV export failed", "error", err)
		abortWithError(c, http.StatusInternalServerError, "EXPORT_FAILED", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleListSamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"samples": records.SampleNames()})
}

// handleSample handles GET /v1/samples/:name. ?format=csv returns the
// project as CSV instead of JSON.
func (s *Server) handleSample(c *gin.Context) {
	acts, err := records.Sample(c.Param("name"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "UNKNOWN_SAMPLE", err)
		return
	}

	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, ExportRequest{Activities: acts})
		return
	}
	var buf bytes.Buffer
	if err := records.WriteActivities(&buf, acts); err != nil {
		abortWithError(c, http.StatusInternalServerError, "EXPORT_FAILED", err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
