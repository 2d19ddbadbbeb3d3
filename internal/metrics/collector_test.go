package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotEmpty(t *testing.T) {
	c := NewCollector()

	snap := c.Snapshot()

	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
	assert.Nil(t, snap.GenieSend)
	assert.Nil(t, snap.WarehouseQuery)
	assert.Nil(t, snap.ChartData)
	assert.Nil(t, snap.GenieProxy)
}

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpWarehouseQuery, 100*time.Millisecond)
	c.RecordTiming(OpWarehouseQuery, 300*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.WarehouseQuery)

	assert.Equal(t, int64(2), snap.WarehouseQuery.Count)
	assert.Equal(t, int64(400), snap.WarehouseQuery.TotalTimeMs)
	assert.Equal(t, 200.0, snap.WarehouseQuery.AvgTimeMs)
	assert.Equal(t, int64(100), snap.WarehouseQuery.MinTimeMs)
	assert.Equal(t, int64(300), snap.WarehouseQuery.MaxTimeMs)

	// Timing-only operations never report poll stats
	assert.Nil(t, snap.WarehouseQuery.TotalPolls)
	assert.Nil(t, snap.WarehouseQuery.AvgPolls)
}

func TestRecordPolled(t *testing.T) {
	c := NewCollector()

	c.RecordPolled(OpGenieSend, 2*time.Second, 3)
	c.RecordPolled(OpGenieSend, 4*time.Second, 7)

	snap := c.Snapshot()
	require.NotNil(t, snap.GenieSend)

	assert.Equal(t, int64(2), snap.GenieSend.Count)
	assert.Equal(t, int64(6000), snap.GenieSend.TotalTimeMs)
	assert.Equal(t, 3000.0, snap.GenieSend.AvgTimeMs)

	require.NotNil(t, snap.GenieSend.TotalPolls)
	assert.Equal(t, int64(10), *snap.GenieSend.TotalPolls)
	assert.Equal(t, 5.0, *snap.GenieSend.AvgPolls)
	assert.Equal(t, int64(3), *snap.GenieSend.MinPolls)
	assert.Equal(t, int64(7), *snap.GenieSend.MaxPolls)
}

func TestRecordPolledZeroPolls(t *testing.T) {
	c := NewCollector()

	c.RecordPolled(OpGenieSend, time.Second, 0)

	snap := c.Snapshot()
	require.NotNil(t, snap.GenieSend)

	assert.Equal(t, int64(1), snap.GenieSend.Count)
	assert.Nil(t, snap.GenieSend.TotalPolls)
}

func TestOperationsAreIndependent(t *testing.T) {
	c := NewCollector()

	c.RecordPolled(OpGenieSend, time.Second, 2)
	c.RecordTiming(OpChartData, 50*time.Millisecond)

	snap := c.Snapshot()

	require.NotNil(t, snap.GenieSend)
	require.NotNil(t, snap.ChartData)
	assert.Nil(t, snap.WarehouseQuery)
	assert.Nil(t, snap.GenieProxy)
	assert.Equal(t, int64(1), snap.ChartData.Count)
}

func TestConcurrentRecording(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordPolled(OpGenieSend, time.Millisecond, 1)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.NotNil(t, snap.GenieSend)
	assert.Equal(t, int64(1000), snap.GenieSend.Count)
	assert.Equal(t, int64(1000), *snap.GenieSend.TotalPolls)
}
