package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorAggregates(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpRank, 10*time.Millisecond)
	c.RecordTiming(OpRank, 30*time.Millisecond)
	c.RecordBatch(OpEmbedding, 5*time.Millisecond, 12)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	emb := snap.Operations[0]
	assert.Equal(t, OpEmbedding, emb.Name)
	assert.Equal(t, int64(12), emb.Items)

	rank := snap.Operations[1]
	assert.Equal(t, OpRank, rank.Name)
	assert.Equal(t, int64(2), rank.Count)
	assert.Equal(t, int64(40), rank.TotalTimeMs)
	assert.Equal(t, int64(10), rank.MinTimeMs)
	assert.Equal(t, int64(30), rank.MaxTimeMs)
	assert.InDelta(t, 20.0, rank.AvgTimeMs, 0.001)
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpAllocate, time.Millisecond)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 1)
	assert.Equal(t, int64(50), snap.Operations[0].Count)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpRank, time.Second)
	assert.Empty(t, c.Snapshot().Operations)
}
