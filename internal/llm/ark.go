package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sqlchat/sqlchat/internal/model/chat"
)

// ArkConfig configures the Volcengine Ark provider.
type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// ArkClient completes conversations through an eino Ark chat model.
type ArkClient struct {
	chatModel model.ChatModel
	model     string
}

// NewArkClient builds the underlying eino chat model from the config.
func NewArkClient(ctx context.Context, cfg ArkConfig) (*ArkClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + model, or the AK/SK pair")
	}

	var temperature *float32
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		temperature = &val
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		AccessKey:   cfg.AccessKey,
		SecretKey:   cfg.SecretKey,
		Model:       cfg.Model,
		Temperature: temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}

	return &ArkClient{chatModel: chatModel, model: cfg.Model}, nil
}

// Provider identifies this client in reply metadata.
func (c *ArkClient) Provider() string { return "ark" }

// Model returns the configured model name.
func (c *ArkClient) Model() string { return c.model }

// Complete invokes the eino chat model with the converted history.
func (c *ArkClient) Complete(ctx context.Context, messages []Message) (Completion, error) {
	input := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			input = append(input, schema.SystemMessage(msg.Content))
		case RoleAssistant:
			input = append(input, schema.AssistantMessage(msg.Content, nil))
		default:
			input = append(input, schema.UserMessage(msg.Content))
		}
	}

	resp, err := c.chatModel.Generate(ctx, input)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to run ark chat model: %w", err)
	}

	completion := Completion{Content: resp.Content, Model: c.model}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		completion.Usage = chat.TokenUsage{
			PromptTokens:     resp.ResponseMeta.Usage.PromptTokens,
			CompletionTokens: resp.ResponseMeta.Usage.CompletionTokens,
			TotalTokens:      resp.ResponseMeta.Usage.TotalTokens,
		}
	}
	return completion, nil
}
