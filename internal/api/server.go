package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"study-buddy/internal/logger"
	"study-buddy/internal/services"
)

const (
	maxMultipartMemory    = 8 << 20 // 8 MB
	defaultMaxUploadBytes = 16 << 20

	msgInputTooShort = "Syllabus text is too short or empty"
	msgInvalidJSON   = "AI returned invalid JSON"
)

type Config struct {
	StaticDir      string
	MaxUploadBytes int64
}

type Server struct {
	engine   *gin.Engine
	analysis *services.AnalysisService
	jobs     *JobManager
	config   Config
	log      *logger.Logger
}

func NewServer(analysis *services.AnalysisService, jobs *JobManager, config Config, log *logger.Logger) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = defaultMaxUploadBytes
	}
	if config.StaticDir == "" {
		config.StaticDir = "static"
	}
	if jobs == nil {
		jobs = NewJobManager(0)
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		engine:   gin.New(),
		analysis: analysis,
		jobs:     jobs,
		config:   config,
		log:      log.With("component", "api"),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.MaxMultipartMemory = maxMultipartMemory
	s.engine.HandleMethodNotAllowed = true
	s.engine.Use(gin.Recovery(), RequestID(), RequestLogger(s.log), CORS())

	s.engine.GET("/", s.handleIndex)
	s.engine.Static("/static", s.config.StaticDir)

	analyze := s.engine.Group("/", s.limitBody())
	analyze.POST("/analyze-text", s.handleAnalyzeText)
	analyze.POST("/analyze-pdf", s.handleAnalyzeFile(services.SourcePDF, "pdf"))
	analyze.POST("/analyze-image", s.handleAnalyzeFile(services.SourceImage, "image"))

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/jobs", s.limitBody(), s.handleCreateJob)
	api.GET("/jobs/:id", s.handleJobStatus)

	s.engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not found")
	})
	s.engine.NoMethod(func(c *gin.Context) {
		writeError(c, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)
		c.Next()
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	index := filepath.Join(s.config.StaticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		writeError(c, http.StatusNotFound, "frontend not found")
		return
	}
	c.File(index)
}

func (s *Server) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyzeText(c *gin.Context) {
	if err := parseForm(c.Request); err != nil {
		status, msg := formBodyError(err)
		writeError(c, status, msg)
		return
	}
	text, ok := c.GetPostForm("text")
	if !ok {
		writeError(c, http.StatusBadRequest, "text field is required")
		return
	}
	include := parseBool(c.PostForm("include_playlists"), true)
	s.analyze(c, services.Source{Kind: services.SourceText, Text: text}, include)
}

func (s *Server) handleAnalyzeFile(kind services.SourceKind, field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile(field)
		if err != nil {
			status, msg := formFileError(err, field)
			writeError(c, status, msg)
			return
		}
		file, err := header.Open()
		if err != nil {
			writeError(c, http.StatusBadRequest, fmt.Sprintf("open %s upload", field))
			return
		}
		defer file.Close()

		include := parseBool(c.PostForm("include_playlists"), true)
		s.analyze(c, services.Source{Kind: kind, Reader: file, Size: header.Size}, include)
	}
}

func (s *Server) analyze(c *gin.Context, src services.Source, includePlaylists bool) {
	outline, err := s.analysis.AnalyzeSource(c.Request.Context(), src, includePlaylists, nil)
	if err != nil {
		status, msg := errorResponse(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("analysis failed", "kind", src.Kind, "error", err, "request_id", c.GetString(requestIDKey))
		}
		writeError(c, status, msg)
		return
	}
	writeJSON(c, http.StatusOK, outline)
}

func (s *Server) handleCreateJob(c *gin.Context) {
	if err := parseForm(c.Request); err != nil {
		status, msg := formBodyError(err)
		writeError(c, status, msg)
		return
	}
	kind := services.SourceKind(strings.ToLower(strings.TrimSpace(c.PostForm("kind"))))
	if kind == "" {
		kind = services.SourceText
	}

	src := services.Source{Kind: kind}
	switch kind {
	case services.SourceText:
		src.Text = c.PostForm("text")
	case services.SourcePDF, services.SourceImage:
		field := string(kind)
		header, err := c.FormFile(field)
		if err != nil {
			status, msg := formFileError(err, field)
			writeError(c, status, msg)
			return
		}
		// Multipart temp files go away with the request, so the job keeps
		// its own copy.
		data, err := readUpload(header)
		if err != nil {
			writeError(c, http.StatusBadRequest, fmt.Sprintf("read %s upload", field))
			return
		}
		src.Reader = bytes.NewReader(data)
		src.Size = int64(len(data))
	default:
		writeError(c, http.StatusBadRequest, "kind must be 'text', 'pdf' or 'image'")
		return
	}

	include := parseBool(c.PostForm("include_playlists"), true)
	jobID, snapshot := s.jobs.CreateJob(string(kind))

	go s.runJob(context.Background(), jobID, src, include)

	writeJSON(c, http.StatusAccepted, snapshot)
}

func (s *Server) handleJobStatus(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("id"))
	job, ok := s.jobs.GetJob(jobID)
	if !ok {
		writeError(c, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(c, http.StatusOK, job)
}

func (s *Server) runJob(ctx context.Context, jobID string, src services.Source, includePlaylists bool) {
	s.jobs.MarkProcessing(jobID)
	progress := func(step, message string, current, total int) {
		s.jobs.UpdateProgress(jobID, step, message, current, total)
	}

	outline, err := s.analysis.AnalyzeSource(ctx, src, includePlaylists, progress)
	if err != nil {
		_, msg := errorResponse(err)
		s.log.Warn("analysis job failed", "job_id", jobID, "error", err)
		s.jobs.MarkFailed(jobID, msg)
		return
	}
	s.jobs.MarkComplete(jobID, outline)
}

// errorResponse maps pipeline errors to a status code and client message.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInputTooShort), errors.Is(err, services.ErrEmptyInput):
		return http.StatusBadRequest, msgInputTooShort
	case errors.Is(err, services.ErrUnsupportedSource):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrMalformedJSON):
		return http.StatusInternalServerError, msgInvalidJSON
	case errors.Is(err, services.ErrEmptyOutput):
		return http.StatusInternalServerError, "Empty AI response"
	case errors.Is(err, services.ErrNoJSONFound):
		return http.StatusInternalServerError, "No JSON found in AI response"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// parseForm reads a urlencoded or multipart body up front, so a body cut
// off by the upload limit is reported instead of looking like a missing field.
func parseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

func formBodyError(err error) (int, string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, "request body too large"
	}
	return http.StatusBadRequest, "invalid form body"
}

func formFileError(err error, field string) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "upload too large"
	case errors.Is(err, http.ErrMissingFile):
		return http.StatusBadRequest, fmt.Sprintf("%s file is required", field)
	default:
		return http.StatusBadRequest, "invalid multipart form"
	}
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// parseBool reads an HTML form boolean. Unrecognised values use fallback.
func parseBool(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return fallback
	}
}

func writeJSON(c *gin.Context, status int, payload interface{}) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.PureJSON(status, payload)
}

func writeError(c *gin.Context, status int, message string) {
	writeJSON(c, status, map[string]string{"error": message})
}
