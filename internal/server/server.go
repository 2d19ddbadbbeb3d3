// Package server provides the HTTP backend for the dashboard: Genie chat
// orchestration, credential-injecting proxy endpoints, warehouse and
// catalog operations, and the in-memory chart store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clinicpulse/clinicpulse/internal/charts"
	"github.com/clinicpulse/clinicpulse/internal/config"
	"github.com/clinicpulse/clinicpulse/internal/databricks"
	"github.com/clinicpulse/clinicpulse/internal/genie"
	"github.com/clinicpulse/clinicpulse/internal/metrics"
	"github.com/clinicpulse/clinicpulse/internal/warehouse"
)

// Server wires the Genie client, warehouse client, chart store and
// metrics collector behind one HTTP handler.
type Server struct {
	cfg       config.Config
	genie     *genie.Client
	warehouse *warehouse.Client
	charts    *charts.Store
	metrics   *metrics.Collector
	upstream  *databricks.Client
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// New creates a server and all its clients from configuration.
func New(cfg config.Config, logger *slog.Logger) *Server {
	upstream := databricks.New(cfg.DatabricksHost, cfg.DatabricksToken, cfg.HTTPTimeout)

	return &Server{
		cfg:       cfg,
		genie:     genie.New(cfg, logger),
		warehouse: warehouse.New(upstream, cfg.DatabricksWarehouseID, logger),
		charts:    charts.NewStore(),
		metrics:   metrics.NewCollector(),
		upstream:  upstream,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // same-origin in prod, proxied in dev
			},
		},
	}
}

// Handler returns the fully routed HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Genie chat and pass-through proxy
	mux.HandleFunc("POST /api/genie/chat", s.handleChat)
	mux.HandleFunc("GET /api/genie/ws", s.handleChatWS)
	mux.HandleFunc("POST /api/genie/start-conversation", s.handleStartConversation)
	mux.HandleFunc("POST /api/genie/conversations/{conversationID}/messages", s.handlePostMessage)
	mux.HandleFunc("GET /api/genie/conversations/{conversationID}/messages/{messageID}", s.handleGetMessage)
	mux.HandleFunc("GET /api/genie/conversations/{conversationID}/query-result/{statementID}", s.handleGetQueryResult)

	// Warehouse and catalog
	mux.HandleFunc("GET /api/databricks/warehouses", s.handleListWarehouses)
	mux.HandleFunc("POST /api/databricks/warehouses/{warehouseID}/start", s.handleStartWarehouse)
	mux.HandleFunc("POST /api/databricks/warehouses/{warehouseID}/stop", s.handleStopWarehouse)
	mux.HandleFunc("POST /api/databricks/test-connection", s.handleTestConnection)
	mux.HandleFunc("POST /api/databricks/query", s.handleQuery)
	mux.HandleFunc("GET /api/databricks/catalogs", s.handleCatalogs)
	mux.HandleFunc("GET /api/databricks/schemas", s.handleSchemas)
	mux.HandleFunc("GET /api/databricks/tables", s.handleTables)
	mux.HandleFunc("GET /api/databricks/table-metadata", s.handleTableMetadata)

	// Chart store
	mux.HandleFunc("POST /api/charts", s.handleSaveChart)
	mux.HandleFunc("GET /api/charts", s.handleListCharts)
	mux.HandleFunc("GET /api/charts/{chartID}", s.handleGetChart)
	mux.HandleFunc("DELETE /api/charts/{chartID}", s.handleDeleteChart)
	mux.HandleFunc("POST /api/charts/data", s.handleChartData)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)

	return LoggingMiddleware(s.logger)(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// Run builds a server from configuration and serves it until the context
// is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	srv := New(cfg, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Minute, // chat requests poll for up to ten minutes
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting clinicpulse server",
			"port", cfg.Port,
			"databricks_host", cfg.DatabricksHost,
			"genie_space_id", cfg.GenieSpaceID,
			"warehouse_id", cfg.DatabricksWarehouseID)

		if !srv.genie.IsConfigured() {
			logger.Warn("Genie is not fully configured, set DATABRICKS_HOST, DATABRICKS_TOKEN and GENIE_SPACE_ID")
		}

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the error envelope the frontend expects.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
}

// writeError maps an error to the response envelope: upstream API errors
// keep their status code and message, everything else is a 500.
func writeError(w http.ResponseWriter, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	var apiErr *databricks.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
		message = apiErr.ErrorMessage()
	} else if err != nil {
		message = err.Error()
	}

	writeJSON(w, status, errorResponse{Error: errorDetail{Message: message}})
}

// writeBadRequest reports a malformed or incomplete request.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorDetail{Message: message}})
}
