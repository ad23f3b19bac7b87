package service

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/trackbank/internal/embedding"
	"github.com/raphaelgruber/trackbank/internal/metrics"
)

const defaultEmbedBatchSize = 32

// embedAll embeds texts in batches, preserving order, and records one timing per batch.
// progress may be nil.
func embedAll(ctx context.Context, e embedding.Embedder, mc *metrics.Collector, texts []string, batchSize int, progress func(done, total int)) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchSize, len(texts))

		began := time.Now()
		vectors, err := e.EmbedBatch(ctx, texts[start:end])
		mc.RecordBatch(metrics.OpEmbedding, time.Since(began), end-start)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors", start, end, len(vectors))
		}
		out = append(out, vectors...)

		if progress != nil {
			progress(end, len(texts))
		}
	}
	return out, nil
}
