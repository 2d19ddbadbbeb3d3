// Package warehouse manages SQL warehouse lifecycle, statement execution
// and unity catalog browsing through the Databricks REST API.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/clinicpulse/clinicpulse/internal/databricks"
)

// Statement execution polling. Statements get a server-side wait hint
// first; anything still running after that is polled once a second.
const (
	statementWaitTimeout  = "30s"
	statementPollInterval = time.Second
	statementPollAttempts = 30
)

// ErrQueryTimeout indicates a statement did not finish within the
// polling budget.
var ErrQueryTimeout = errors.New("query timeout")

// Warehouse describes a SQL warehouse.
type Warehouse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	ClusterSize   string `json:"cluster_size"`
	WarehouseType string `json:"warehouse_type"`
}

// Client executes statements and manages warehouses.
type Client struct {
	api         *databricks.Client
	warehouseID string
	logger      *slog.Logger

	// sleep is swapped out in tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a warehouse client. warehouseID is the default warehouse
// used for statement execution.
func New(api *databricks.Client, warehouseID string, logger *slog.Logger) *Client {
	return &Client{
		api:         api,
		warehouseID: warehouseID,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// List returns all SQL warehouses in the workspace.
func (c *Client) List(ctx context.Context) ([]Warehouse, error) {
	var resp struct {
		Warehouses []Warehouse `json:"warehouses"`
	}
	if err := c.api.Get(ctx, "/api/2.0/sql/warehouses", &resp); err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return resp.Warehouses, nil
}

// Get returns a single warehouse by id, defaulting to the configured one.
func (c *Client) Get(ctx context.Context, id string) (*Warehouse, error) {
	if id == "" {
		id = c.warehouseID
	}

	var w Warehouse
	if err := c.api.Get(ctx, "/api/2.0/sql/warehouses/"+id, &w); err != nil {
		return nil, fmt.Errorf("get warehouse %s: %w", id, err)
	}
	return &w, nil
}

// Start requests that a warehouse be started. Startup is asynchronous
// and may take 30-60 seconds to complete.
func (c *Client) Start(ctx context.Context, id string) error {
	if err := c.api.Post(ctx, fmt.Sprintf("/api/2.0/sql/warehouses/%s/start", id), nil, nil); err != nil {
		return fmt.Errorf("start warehouse %s: %w", id, err)
	}
	return nil
}

// Stop requests that a warehouse be stopped.
func (c *Client) Stop(ctx context.Context, id string) error {
	if err := c.api.Post(ctx, fmt.Sprintf("/api/2.0/sql/warehouses/%s/stop", id), nil, nil); err != nil {
		return fmt.Errorf("stop warehouse %s: %w", id, err)
	}
	return nil
}

// statementResponse is the wire shape of a statement execution payload.
type statementResponse struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"status"`
	Manifest *struct {
		Schema struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"schema"`
	} `json:"manifest,omitempty"`
	Result *struct {
		DataArray [][]any `json:"data_array"`
	} `json:"result,omitempty"`
}

// ExecuteQuery runs a statement on the configured warehouse and returns
// the rows as column-keyed objects. The statement API is given a server
// side wait hint; still-running statements are polled until they reach a
// terminal state or the polling budget runs out.
func (c *Client) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}

	var result statementResponse
	err := c.api.Post(ctx, "/api/2.0/sql/statements", map[string]any{
		"statement":       query,
		"warehouse_id":    c.warehouseID,
		"wait_timeout":    statementWaitTimeout,
		"on_wait_timeout": "CONTINUE",
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("execute statement: %w", err)
	}

	if err := statementFailure(result); err != nil {
		return nil, err
	}

	for attempt := 0; pending(result.Status.State) && attempt < statementPollAttempts; attempt++ {
		if err := c.sleep(ctx, statementPollInterval); err != nil {
			return nil, err
		}

		if err := c.api.Get(ctx, "/api/2.0/sql/statements/"+result.StatementID, &result); err != nil {
			return nil, fmt.Errorf("poll statement %s: %w", result.StatementID, err)
		}

		if err := statementFailure(result); err != nil {
			return nil, err
		}
	}

	if result.Status.State != "SUCCEEDED" {
		return nil, ErrQueryTimeout
	}

	return transformResult(result), nil
}

func pending(state string) bool {
	return state == "PENDING" || state == "RUNNING"
}

func statementFailure(result statementResponse) error {
	if result.Status.State != "FAILED" && result.Status.State != "CANCELED" {
		return nil
	}

	msg := "query failed"
	if result.Status.Error != nil && result.Status.Error.Message != "" {
		msg = result.Status.Error.Message
	}
	return fmt.Errorf("statement %s: %s", result.StatementID, msg)
}

// transformResult maps the positional data array to column-keyed rows.
func transformResult(result statementResponse) []map[string]any {
	var columns []string
	if result.Manifest != nil {
		for _, col := range result.Manifest.Schema.Columns {
			columns = append(columns, col.Name)
		}
	}

	var data [][]any
	if result.Result != nil {
		data = result.Result.DataArray
	}

	rows := make([]map[string]any, 0, len(data))
	for _, raw := range data {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(raw) {
				row[col] = raw[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Catalogs returns the names of all unity catalogs.
func (c *Client) Catalogs(ctx context.Context) ([]string, error) {
	var resp struct {
		Catalogs []struct {
			Name string `json:"name"`
		} `json:"catalogs"`
	}
	if err := c.api.Get(ctx, "/api/2.1/unity-catalog/catalogs", &resp); err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}

	names := make([]string, 0, len(resp.Catalogs))
	for _, cat := range resp.Catalogs {
		names = append(names, cat.Name)
	}
	return names, nil
}

// Schemas returns the schema names within a catalog.
func (c *Client) Schemas(ctx context.Context, catalog string) ([]string, error) {
	if catalog == "" {
		return nil, errors.New("catalog is required")
	}

	var resp struct {
		Schemas []struct {
			Name string `json:"name"`
		} `json:"schemas"`
	}
	path := "/api/2.1/unity-catalog/schemas?catalog_name=" + url.QueryEscape(catalog)
	if err := c.api.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	names := make([]string, 0, len(resp.Schemas))
	for _, s := range resp.Schemas {
		names = append(names, s.Name)
	}
	return names, nil
}

// Tables returns the table names within a catalog schema.
func (c *Client) Tables(ctx context.Context, catalog, schema string) ([]string, error) {
	if catalog == "" || schema == "" {
		return nil, errors.New("catalog and schema are required")
	}

	var resp struct {
		Tables []struct {
			Name string `json:"name"`
		} `json:"tables"`
	}
	path := fmt.Sprintf("/api/2.1/unity-catalog/tables?catalog_name=%s&schema_name=%s",
		url.QueryEscape(catalog), url.QueryEscape(schema))
	if err := c.api.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	names := make([]string, 0, len(resp.Tables))
	for _, t := range resp.Tables {
		names = append(names, t.Name)
	}
	return names, nil
}

// TableMetadata returns the raw metadata for a fully qualified table.
func (c *Client) TableMetadata(ctx context.Context, catalog, schema, table string) (map[string]any, error) {
	if catalog == "" || schema == "" || table == "" {
		return nil, errors.New("catalog, schema and table are required")
	}

	var meta map[string]any
	path := fmt.Sprintf("/api/2.1/unity-catalog/tables/%s.%s.%s", catalog, schema, table)
	if err := c.api.Get(ctx, path, &meta); err != nil {
		return nil, fmt.Errorf("table metadata: %w", err)
	}
	return meta, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
