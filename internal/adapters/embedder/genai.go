package embedder

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAI defaults.
const (
	DefaultGenAIModel = "gemini-embedding-001"
	defaultGenAIDims  = 768
)

// GenAIEngine embeds text through the Google Gemini API.
type GenAIEngine struct {
	client   *genai.Client
	model    string
	taskType string
	dims     int32
}

// NewGenAIEngine creates a Gemini embedding engine. dims is requested as
// the output dimensionality so the width matches the feature schema.
func NewGenAIEngine(ctx context.Context, apiKey, model, taskType string, dims int) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultGenAIModel
	}
	if dims <= 0 {
		dims = defaultGenAIDims
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIEngine{
		client:   client,
		model:    model,
		taskType: ParseTaskType(taskType),
		dims:     int32(dims), //nolint:gosec // bounded by config validation
	}, nil
}

// GenAI embedding task types.
const (
	TaskSemanticSimilarity = "SEMANTIC_SIMILARITY"
	TaskClassification     = "CLASSIFICATION"
	TaskClustering         = "CLUSTERING"
	TaskRetrievalDocument  = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery     = "RETRIEVAL_QUERY"
)

// ParseTaskType normalises a config value to a GenAI task type. Unknown
// values select semantic similarity.
func ParseTaskType(s string) string {
	switch t := strings.ToUpper(strings.TrimSpace(s)); t {
	case TaskClassification, TaskClustering, TaskRetrievalDocument, TaskRetrievalQuery:
		return t
	default:
		return TaskSemanticSimilarity
	}
}

// Embed generates an embedding for a single text.
func (e *GenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := e.dims
	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{
			TaskType:             e.taskType,
			OutputDimensionality: &dims,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, ErrEmptyResponse
	}
	return result.Embeddings[0].Values, nil
}

// Dimensions returns the requested embedding width.
func (e *GenAIEngine) Dimensions() int { return int(e.dims) }

// Name returns the engine name.
func (e *GenAIEngine) Name() string { return "genai:" + e.model }
