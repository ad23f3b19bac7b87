package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"golang.org/x/sync/errgroup"
)

// DefaultBedrockModel is Amazon Titan Text Embeddings V2.
const DefaultBedrockModel = "amazon.titan-embed-text-v2:0"

// bedrockConcurrency bounds parallel InvokeModel calls in EmbedBatch.
const bedrockConcurrency = 4

// InvokeModelAPI is the subset of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock implements Embedder with Titan text embeddings on Amazon Bedrock.
type Bedrock struct {
	client    InvokeModelAPI
	model     string
	dimension int
}

var _ Embedder = (*Bedrock)(nil)

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewBedrock creates a Bedrock embedder using the default AWS credential chain.
// If model is empty, DefaultBedrockModel is used.
func NewBedrock(ctx context.Context, region, model string, dimension int) (*Bedrock, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewBedrockWithClient(bedrockruntime.NewFromConfig(awsCfg), model, dimension), nil
}

// NewBedrockWithClient creates a Bedrock embedder around an existing client.
func NewBedrockWithClient(client InvokeModelAPI, model string, dimension int) *Bedrock {
	if model == "" {
		model = DefaultBedrockModel
	}
	return &Bedrock{client: client, model: model, dimension: dimension}
}

// Embed generates an embedding vector for text.
func (b *Bedrock) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{InputText: text, Dimensions: b.dimension, Normalize: true})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model %s: %w", b.model, err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Embedding) != b.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)", len(resp.Embedding), b.dimension, b.model)
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds texts concurrently; Titan accepts one input per call.
func (b *Bedrock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bedrockConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			v, err := b.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	return out, nil
}

// Model returns the Bedrock model ID.
func (b *Bedrock) Model() string {
	return b.model
}

// Dimension returns the expected embedding dimension.
func (b *Bedrock) Dimension() int {
	return b.dimension
}
