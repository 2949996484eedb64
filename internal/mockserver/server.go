// Package mockserver is a development backend speaking the same HTTP API as
// the change detection service, backed by an in-memory store.
package mockserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/terrawatch/terrawatch/internal/api"
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/logger"
)

const (
	// WelcomeMessage is returned by the root path
	WelcomeMessage = "Welcome to the Change Detection API"

	defaultMaxUpload = 32 << 20
	shutdownTimeout  = 5 * time.Second
)

// Server serves the backend API from a Store
type Server struct {
	store     *Store
	log       *logger.Logger
	secret    string
	imageBase string
	maxUpload int64
	engine    *gin.Engine
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAuthSecret requires an HS256 bearer token whose subject matches the
// user id in the path of every user-scoped route
func WithAuthSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// WithImageBase sets the URL prefix of generated visualization links
func WithImageBase(base string) Option {
	return func(s *Server) {
		s.imageBase = strings.TrimRight(base, "/")
	}
}

// WithMaxUpload limits the size of a multipart upload in bytes
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// New builds a server and its routes
func New(store *Store, opts ...Option) *Server {
	if store == nil {
		store = NewStore()
	}
	s := &Server{
		store:     store,
		log:       logger.Nop(),
		imageBase: "https://images.terrawatch.dev/results",
		maxUpload: defaultMaxUpload,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = s.maxUpload

	r.GET("/", s.handleRoot)
	r.GET("/available-regions", s.handleListRegions)
	r.POST("/available-regions", s.handleAddRegion)

	user := r.Group("/", s.userAuth())
	user.POST("/analysis/predefined_region/:userId", s.handlePredefined)
	user.POST("/analysis/user_uploaded_region/:userId", s.handleUploaded)
	user.GET("/history/:userId", s.handleHistory)

	s.engine = r
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.DebugWithFields("%s %s", []logger.Field{
			logger.Status(c.Writer.Status()),
			logger.Duration(time.Since(start)),
			logger.RequestID(c.GetHeader("X-Request-ID")),
		}, c.Request.Method, c.Request.URL.Path)
	}
}

// userAuth checks the bearer token when a secret is configured
func (s *Server) userAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header required"})
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authorization header format"})
			c.Abort()
			return
		}

		session, err := auth.FromToken(parts[1], s.secret)
		if err != nil || !session.SignedIn() {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
			c.Abort()
			return
		}
		if session.UserID != c.Param("userId") {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Token does not match user"})
			c.Abort()
			return
		}

		c.Set("userID", session.UserID)
		c.Next()
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, common.Message{Message: WelcomeMessage})
}

func (s *Server) handleListRegions(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Regions())
}

func (s *Server) handleAddRegion(c *gin.Context) {
	var in common.NewRegion
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, validationDetail("body", err.Error()))
		return
	}

	region, err := s.store.AddRegion(in)
	switch {
	case errors.Is(err, ErrDuplicateRegion):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	case errors.Is(err, ErrInvalidRegion):
		c.JSON(http.StatusUnprocessableEntity, validationDetail("body", err.Error()))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	s.log.InfoWithFields("region added", []logger.Field{logger.F("id", region.ID), logger.F("name", region.Name)})
	c.JSON(http.StatusCreated, common.Message{Message: "Region added successfully"})
}

func (s *Server) handlePredefined(c *gin.Context) {
	userID := c.Param("userId")

	var req common.PredefinedAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, validationDetail("body", err.Error()))
		return
	}
	if err := checkYears(req.BeforeYear, req.AfterYear); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	region, ok := s.store.Region(req.RegionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Region not found"})
		return
	}

	result := synthesize(region.Folder, req.BeforeYear, req.AfterYear, s.imageBase)
	s.store.Record(common.HistoryRecord{
		UserID:           userID,
		InputType:        common.InputPredefinedRegion,
		RegionName:       region.Name,
		BeforeYear:       req.BeforeYear,
		AfterYear:        req.AfterYear,
		VisualizationURL: result.VisualizationURL,
		ChangeMapURL:     result.ChangeMapURL,
		Analysis:         result,
	})

	c.JSON(http.StatusOK, common.AnalysisEnvelope{Message: "Analysis completed successfully", Analysis: result})
}

func (s *Server) handleUploaded(c *gin.Context) {
	userID := c.Param("userId")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	before, err := c.FormFile(api.FieldBeforeImage)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, validationDetail(api.FieldBeforeImage, "field required"))
		return
	}
	after, err := c.FormFile(api.FieldAfterImage)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, validationDetail(api.FieldAfterImage, "field required"))
		return
	}

	beforeYear, err := strconv.Atoi(c.PostForm(api.FieldBeforeYear))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, validationDetail(api.FieldBeforeYear, "value is not a valid integer"))
		return
	}
	afterYear, err := strconv.Atoi(c.PostForm(api.FieldAfterYear))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, validationDetail(api.FieldAfterYear, "value is not a valid integer"))
		return
	}
	if err := checkYears(beforeYear, afterYear); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	seed, err := digest(before, after)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Could not read uploaded images"})
		return
	}

	result := synthesize(seed, beforeYear, afterYear, s.imageBase)
	s.store.Record(common.HistoryRecord{
		UserID:           userID,
		InputType:        common.InputUserUploaded,
		BeforeYear:       beforeYear,
		AfterYear:        afterYear,
		VisualizationURL: result.VisualizationURL,
		ChangeMapURL:     result.ChangeMapURL,
		Analysis:         result,
	})

	s.log.DebugWithFields("upload analyzed", []logger.Field{
		logger.F("before", before.Filename),
		logger.F("after", after.Filename),
		logger.F("bytes", before.Size+after.Size),
	})
	c.JSON(http.StatusOK, common.AnalysisEnvelope{Message: "Analysis completed successfully", Analysis: result})
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.History(c.Param("userId")))
}

func checkYears(before, after int) error {
	if before <= 0 || after <= 0 {
		return errors.New("Both image years are required")
	}
	if before >= after {
		return errors.New("before_image_year must be earlier than after_image_year")
	}
	return nil
}

// validationDetail mirrors FastAPI's 422 body
func validationDetail(field, msg string) gin.H {
	return gin.H{"detail": []gin.H{{
		"loc":  []string{"body", field},
		"msg":  msg,
		"type": "value_error",
	}}}
}

// digest hashes both uploaded files so the same pair yields the same result
func digest(files ...*multipart.FileHeader) (string, error) {
	h := sha256.New()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", fh.Filename, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
