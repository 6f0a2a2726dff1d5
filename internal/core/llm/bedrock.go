package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"
)

// BedrockProvider implements Provider using AWS Bedrock
type BedrockProvider struct {
	llm       llms.Model
	modelID   string
	maxTokens int
}

// BedrockConfig holds configuration for Bedrock provider
type BedrockConfig struct {
	Region          string // AWS region, defaults to us-east-1
	ModelID         string // defaults to anthropic.claude-3-sonnet-20240229-v1:0
	Profile         string // AWS profile name (optional)
	AccessKeyID     string // optional, for explicit creds
	SecretAccessKey string
	MaxTokens       int // defaults to 4096, the Bedrock Claude 3 output ceiling
}

// NewBedrockProvider creates a new Bedrock provider
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg)
	model, err := bedrock.New(
		bedrock.WithModel(cfg.ModelID),
		bedrock.WithClient(client),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock LLM: %w", err)
	}

	return &BedrockProvider{llm: model, modelID: cfg.ModelID, maxTokens: cfg.MaxTokens}, nil
}

// GenerateText implements Provider
func (p *BedrockProvider) GenerateText(ctx context.Context, prompt string) (*Completion, error) {
	started := time.Now()
	resp, err := p.llm.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithMaxTokens(p.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("bedrock generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("bedrock returned no choices")
	}

	completion := &Completion{Elapsed: time.Since(started)}
	var sb strings.Builder
	for _, choice := range resp.Choices {
		sb.WriteString(choice.Content)
		completion.InputTokens += intFromInfo(choice.GenerationInfo, "input_tokens")
		completion.OutputTokens += intFromInfo(choice.GenerationInfo, "output_tokens")
	}
	completion.Text = sb.String()
	return completion, nil
}

// Name implements Provider
func (p *BedrockProvider) Name() string {
	return "bedrock"
}

func intFromInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
