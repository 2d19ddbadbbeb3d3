package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAssignsIDAndTimestamp(t *testing.T) {
	store := NewStore()

	saved := store.Save(Chart{Name: "Revenue by month"})
	assert.NotEmpty(t, saved.ID)
	assert.Contains(t, saved.ID, "chart_")
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestStoreSaveKeepsExplicitID(t *testing.T) {
	store := NewStore()

	saved := store.Save(Chart{ID: "chart_custom", Name: "Appointments"})
	assert.Equal(t, "chart_custom", saved.ID)
}

func TestStoreListInsertionOrder(t *testing.T) {
	store := NewStore()
	store.Save(Chart{Name: "a"})
	store.Save(Chart{Name: "b"})
	store.Save(Chart{Name: "c"})

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "c", list[2].Name)
}

func TestStoreGet(t *testing.T) {
	store := NewStore()
	saved := store.Save(Chart{Name: "found"})

	got, err := store.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "found", got.Name)

	_, err = store.Get("chart_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	saved := store.Save(Chart{Name: "doomed"})
	store.Save(Chart{Name: "survivor"})

	store.Delete(saved.ID)

	_, err := store.Get(saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, store.List(), 1)

	// Deleting a missing chart is a no-op
	store.Delete("chart_missing")
	assert.Len(t, store.List(), 1)
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name    string
		chart   Chart
		want    string
		wantErr bool
	}{
		{
			"custom query passes through",
			Chart{DataSource: DataSource{Type: "query", CustomQuery: "SELECT * FROM t"}},
			"SELECT * FROM t",
			false,
		},
		{
			"empty custom query",
			Chart{DataSource: DataSource{Type: "query"}},
			"",
			true,
		},
		{
			"table source",
			Chart{
				DataSource: DataSource{Type: "table", Catalog: "main", Schema: "clinic", Table: "appointments"},
				Dimensions: Dimensions{XAxis: "month", YAxis: "total"},
			},
			"SELECT month, total FROM main.clinic.appointments",
			false,
		},
		{
			"table source with filters and limit",
			Chart{
				DataSource: DataSource{Type: "table", Catalog: "main", Schema: "clinic", Table: "appointments"},
				Dimensions: Dimensions{XAxis: "month", YAxis: "total"},
				Filters: []Filter{
					{Field: "status", Operator: "=", Value: "confirmed"},
					{Field: "year", Operator: ">=", Value: "2025"},
				},
				Limit: 100,
			},
			"SELECT month, total FROM main.clinic.appointments WHERE status = 'confirmed' AND year >= '2025' LIMIT 100",
			false,
		},
		{
			"missing table coordinates",
			Chart{
				DataSource: DataSource{Type: "table", Catalog: "main"},
				Dimensions: Dimensions{XAxis: "x", YAxis: "y"},
			},
			"",
			true,
		},
		{
			"missing dimensions",
			Chart{
				DataSource: DataSource{Type: "table", Catalog: "main", Schema: "clinic", Table: "t"},
			},
			"",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildQuery(tt.chart)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
