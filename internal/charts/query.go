package charts

import (
	"errors"
	"fmt"
	"strings"
)

// BuildQuery constructs the SQL statement for a chart configuration.
// Custom-query sources are passed through unchanged; table sources are
// assembled from the configured axes, filters and limit.
func BuildQuery(c Chart) (string, error) {
	if c.DataSource.Type == "query" {
		if c.DataSource.CustomQuery == "" {
			return "", errors.New("custom query is empty")
		}
		return c.DataSource.CustomQuery, nil
	}

	ds := c.DataSource
	if ds.Catalog == "" || ds.Schema == "" || ds.Table == "" {
		return "", errors.New("data source requires catalog, schema and table")
	}
	if c.Dimensions.XAxis == "" || c.Dimensions.YAxis == "" {
		return "", errors.New("chart dimensions require xAxis and yAxis")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s, %s FROM %s.%s.%s",
		c.Dimensions.XAxis, c.Dimensions.YAxis, ds.Catalog, ds.Schema, ds.Table)

	if len(c.Filters) > 0 {
		conditions := make([]string, len(c.Filters))
		for i, f := range c.Filters {
			conditions[i] = fmt.Sprintf("%s %s '%s'", f.Field, f.Operator, f.Value)
		}
		fmt.Fprintf(&b, " WHERE %s", strings.Join(conditions, " AND "))
	}

	if c.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", c.Limit)
	}

	return b.String(), nil
}
