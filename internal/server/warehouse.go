package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicpulse/clinicpulse/internal/metrics"
)

func (s *Server) handleListWarehouses(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DatabricksHost == "" || s.cfg.DatabricksToken == "" {
		writeError(w, nil, "missing Databricks configuration, check DATABRICKS_HOST and DATABRICKS_TOKEN")
		return
	}

	warehouses, err := s.warehouse.List(r.Context())
	if err != nil {
		writeError(w, err, "failed to list warehouses")
		return
	}
	writeJSON(w, http.StatusOK, warehouses)
}

func (s *Server) handleStartWarehouse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("warehouseID")
	if err := s.warehouse.Start(r.Context(), id); err != nil {
		writeError(w, err, "failed to start warehouse")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":      "Warehouse starting...",
		"warehouse_id": id,
		"note":         "It may take 30-60 seconds to fully start",
	})
}

func (s *Server) handleStopWarehouse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("warehouseID")
	if err := s.warehouse.Stop(r.Context(), id); err != nil {
		writeError(w, err, "failed to stop warehouse")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":      "Warehouse stopping...",
		"warehouse_id": id,
	})
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DatabricksHost == "" || s.cfg.DatabricksToken == "" || s.cfg.DatabricksWarehouseID == "" {
		writeError(w, nil, "missing Databricks configuration, check DATABRICKS_HOST, DATABRICKS_TOKEN and DATABRICKS_WAREHOUSE_ID")
		return
	}

	wh, err := s.warehouse.Get(r.Context(), "")
	if err != nil {
		writeError(w, err, "failed to connect to Databricks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "connected",
		"warehouse":    wh.Name,
		"warehouse_id": wh.ID,
		"state":        wh.State,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeBadRequest(w, "query is required")
		return
	}

	start := time.Now()
	rows, err := s.warehouse.ExecuteQuery(r.Context(), req.Query)
	s.metrics.RecordTiming(metrics.OpWarehouseQuery, time.Since(start))

	if err != nil {
		writeError(w, err, "failed to execute query")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCatalogs(w http.ResponseWriter, r *http.Request) {
	catalogs, err := s.warehouse.Catalogs(r.Context())
	if err != nil {
		writeError(w, err, "failed to fetch catalogs")
		return
	}
	writeJSON(w, http.StatusOK, catalogs)
}

func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	catalog := r.URL.Query().Get("catalog")
	if catalog == "" {
		writeBadRequest(w, "catalog parameter is required")
		return
	}

	schemas, err := s.warehouse.Schemas(r.Context(), catalog)
	if err != nil {
		writeError(w, err, "failed to fetch schemas")
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	catalog := r.URL.Query().Get("catalog")
	schema := r.URL.Query().Get("schema")
	if catalog == "" || schema == "" {
		writeBadRequest(w, "catalog and schema parameters are required")
		return
	}

	tables, err := s.warehouse.Tables(r.Context(), catalog, schema)
	if err != nil {
		writeError(w, err, "failed to fetch tables")
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) handleTableMetadata(w http.ResponseWriter, r *http.Request) {
	catalog := r.URL.Query().Get("catalog")
	schema := r.URL.Query().Get("schema")
	table := r.URL.Query().Get("table")
	if catalog == "" || schema == "" || table == "" {
		writeBadRequest(w, "catalog, schema, and table parameters are required")
		return
	}

	meta, err := s.warehouse.TableMetadata(r.Context(), catalog, schema, table)
	if err != nil {
		writeError(w, err, "failed to fetch table metadata")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
