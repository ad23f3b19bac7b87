// Package embedding_test contains tests for embedding clients.
package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/trackbank/internal/config"
	"github.com/raphaelgruber/trackbank/internal/embedding"
)

// fakeLangChain returns vectors of a fixed dimension derived from text length.
type fakeLangChain struct {
	dim   int
	calls int
	texts [][]string
}

func (f *fakeLangChain) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.texts = append(f.texts, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(t))
		out[i] = v
	}
	return out, nil
}

func (f *fakeLangChain) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func TestLangChainEmbed(t *testing.T) {
	fake := &fakeLangChain{dim: 3}
	e := embedding.NewLangChainFrom(fake, "test-model", 3)

	v, err := e.Embed(context.Background(), "rain")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 0, 0}, v)
	assert.Equal(t, "test-model", e.Model())
	assert.Equal(t, 3, e.Dimension())
}

func TestLangChainDimensionMismatch(t *testing.T) {
	e := embedding.NewLangChainFrom(&fakeLangChain{dim: 2}, "test-model", 3)

	_, err := e.Embed(context.Background(), "rain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch: got 2, want 3")

	_, err = e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestLangChainEmbedBatchEmpty(t *testing.T) {
	fake := &fakeLangChain{dim: 3}
	e := embedding.NewLangChainFrom(fake, "test-model", 3)

	out, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, fake.calls)
}

type fakeBedrock struct {
	mu       sync.Mutex
	dim      int
	requests []map[string]any
	err      error
}

func (f *fakeBedrock) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	var req map[string]any
	if err := json.Unmarshal(in.Body, &req); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	v := make([]float32, f.dim)
	v[0] = float32(len(req["inputText"].(string)))
	body, _ := json.Marshal(map[string]any{"embedding": v, "inputTextTokenCount": 1})
	return &bedrockruntime.InvokeModelOutput{Body: body, ContentType: aws.String("application/json")}, nil
}

func TestBedrockEmbed(t *testing.T) {
	fake := &fakeBedrock{dim: 256}
	e := embedding.NewBedrockWithClient(fake, "", 256)

	v, err := e.Embed(context.Background(), "slow lofi piano")
	require.NoError(t, err)
	assert.Len(t, v, 256)
	assert.Equal(t, float32(15), v[0])
	assert.Equal(t, embedding.DefaultBedrockModel, e.Model())

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "slow lofi piano", fake.requests[0]["inputText"])
	assert.Equal(t, float64(256), fake.requests[0]["dimensions"])
	assert.Equal(t, true, fake.requests[0]["normalize"])
}

func TestBedrockEmbedBatchKeepsOrder(t *testing.T) {
	e := embedding.NewBedrockWithClient(&fakeBedrock{dim: 4}, "", 4)
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff"}

	out, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, out, len(texts))
	for i, v := range out {
		assert.Equal(t, float32(len(texts[i])), v[0])
	}
}

func TestBedrockErrors(t *testing.T) {
	e := embedding.NewBedrockWithClient(&fakeBedrock{err: errors.New("throttled")}, "", 4)
	_, err := e.Embed(context.Background(), "x")
	require.ErrorContains(t, err, "throttled")

	e = embedding.NewBedrockWithClient(&fakeBedrock{dim: 8}, "", 4)
	_, err = e.Embed(context.Background(), "x")
	require.ErrorContains(t, err, "dimension mismatch: got 8, want 4")
}

func TestCachedEmbedsOnce(t *testing.T) {
	fake := &fakeLangChain{dim: 3}
	c := embedding.NewCached(embedding.NewLangChainFrom(fake, "m", 3), time.Minute)
	ctx := context.Background()

	_, err := c.Embed(ctx, "rain")
	require.NoError(t, err)
	_, err = c.Embed(ctx, "rain")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)

	out, err := c.EmbedBatch(ctx, []string{"rain", "snow", "snow", "fog"})
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, 2, fake.calls)
	assert.Equal(t, []string{"snow", "fog"}, fake.texts[1], "only uncached texts are sent, once each")
	assert.Equal(t, out[1], out[2])
	assert.Equal(t, 3, c.Len())
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.EmbeddingProvider = "morse"
	_, err := embedding.New(context.Background(), cfg)
	require.Error(t, err)
}

func TestOllamaEmbed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.Default()
	e, err := embedding.NewLangChain(cfg)
	require.NoError(t, err)

	emb, err := e.Embed(ctx, "Warm ambient pads with soft vinyl crackle")
	if err != nil {
		t.Skipf("ollama not reachable: %v", err)
	}

	assert.Len(t, emb, cfg.EmbeddingDimension)

	var sum float64
	for _, v := range emb {
		sum += float64(v) * float64(v)
	}
	assert.Greater(t, math.Sqrt(sum), 0.0, "embedding should not be all zeros")
}
