package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/iulianpascalau/prom-flow/services/promflow/runner"
	"github.com/iulianpascalau/prom-flow/services/promflow/storage"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	apiKeyHeader        = "X-Api-Key"
	maxEventsLimit      = 1000
	shutdownGracePeriod = 5 * time.Second
)

var log = logger.GetOrCreate("api")

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	events         EventStore
	runner         TaskRunner
	results        ResultLoader
	metricsHandler http.Handler
	serviceKey     string
	listenAddr     string
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	ListenAddress  string
	Events         EventStore
	Runner         TaskRunner
	Results        ResultLoader
	MetricsHandler http.Handler
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if len(args.ServiceKeyApi) == 0 {
		return nil, errors.New("empty service key")
	}
	if check.IfNil(args.Events) {
		return nil, errors.New("nil event store")
	}
	if check.IfNil(args.Runner) {
		return nil, errors.New("nil task runner")
	}
	if check.IfNil(args.Results) {
		return nil, errors.New("nil result loader")
	}
	if args.MetricsHandler == nil {
		return nil, errors.New("nil metrics handler")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		events:         args.Events,
		runner:         args.Runner,
		results:        args.Results,
		metricsHandler: args.MetricsHandler,
		serviceKey:     args.ServiceKeyApi,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(s.metricsHandler))

	api := s.router.Group("/api")
	api.Use(s.authAPIKey())
	{
		api.POST("/query", s.handleQuery)
		api.POST("/push", s.handlePush)
		api.GET("/results/:name", s.handleGetResults)
		api.GET("/events", s.handleGetEvents)
		api.GET("/events/:id", s.handleGetEvent)
		api.DELETE("/events/:id", s.handleDeleteEvent)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// Start binds the listen address and serves connections in the background. A bind failure is returned.
func (s *server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on '%s': %w", s.listenAddr, err)
	}
	s.listenAddr = ln.Addr().String()

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: s.generalHandler(s.router),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if s.httpServer != nil {
		err := s.httpServer.Shutdown(ctx)
		if err != nil {
			return err
		}
	}
	s.wg.Wait()

	return nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apiKeyHeader)
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// --- Handlers ---

func (s *server) handleQuery(c *gin.Context) {
	var request common.QueryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	output, err := s.runner.RunQuery(c.Request.Context(), request)
	if err != nil {
		s.respondInvocationError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (s *server) handlePush(c *gin.Context) {
	var request common.PushRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	output, err := s.runner.RunPush(c.Request.Context(), request)
	if err != nil {
		s.respondInvocationError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (s *server) respondInvocationError(c *gin.Context, err error) {
	if errors.Is(err, runner.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Debug("invocation failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

func (s *server) handleGetResults(c *gin.Context) {
	records, err := s.results.Load(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReference) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, storage.ErrResultsNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": records})
}

func (s *server) handleGetEvents(c *gin.Context) {
	limit := 0
	limitStr := c.Query("limit")
	if len(limitStr) > 0 {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 || limit > maxEventsLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	events, err := s.events.GetEvents(c.Request.Context(), c.Query("trigger"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *server) handleGetEvent(c *gin.Context) {
	event, err := s.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, event)
}

func (s *server) handleDeleteEvent(c *gin.Context) {
	err := s.events.DeleteEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
