package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/request"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is how often the client retries transient failures
	DefaultMaxRetries = 2

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

const systemPrompt = "You extract work-log entries from short messages written or dictated in Russian or English. " +
	"Respond with valid JSON only."

// OpenAIConfig configures an OpenAIExtractor
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	// MaxRetries of zero disables retries; a negative value selects DefaultMaxRetries
	MaxRetries int
	DebugMode  bool
}

// OpenAIExtractor implements CommandExtractor with an OpenAI chat model in JSON mode
type OpenAIExtractor struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIExtractor creates an extractor. Empty fields fall back to the defaults.
func NewOpenAIExtractor(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(cfg.MaxRetries),
	)

	return &OpenAIExtractor{
		client:    client,
		model:     cfg.Model,
		logger:    logger,
		debugMode: cfg.DebugMode,
	}, nil
}

// Model returns the configured model name
func (p *OpenAIExtractor) Model() string {
	return p.model
}

// ExtractCommand asks the model for the command fields of text
func (p *OpenAIExtractor) ExtractCommand(ctx context.Context, text string, now time.Time) (*Extraction, error) {
	prompt := buildExtractionPrompt(text, now)
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := request.RequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "extract_command"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "extract_command"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to extract command: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to extract command: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "extract_command"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parseExtraction(content)
}

func buildExtractionPrompt(text string, now time.Time) string {
	var b strings.Builder
	b.WriteString("Extract a work-log entry from the message below.\n\n")
	b.WriteString("Time context:\n")
	fmt.Fprintf(&b, "- Current date and time: %s (%s, %s)\n", now.Format("2006-01-02 15:04"), now.Weekday(), now.Location())
	b.WriteString("- Resolve relative days such as today or yesterday against the current date.\n")
	b.WriteString("- Entries are never in the future.\n\n")
	b.WriteString("Respond with a JSON object with exactly these fields:\n")
	b.WriteString(`- "project": the project name as spoken, keeping any numbers` + "\n")
	b.WriteString(`- "task": the task description` + "\n")
	b.WriteString(`- "date": start date as YYYY-MM-DD` + "\n")
	b.WriteString(`- "time": start time as HH:MM in 24-hour format` + "\n")
	b.WriteString(`- "duration_minutes": positive integer duration in minutes` + "\n")
	b.WriteString("Use an empty string for any field the message does not contain. Never copy field names as values.\n\n")
	b.WriteString("Message:\n")
	b.WriteString(text)
	return b.String()
}

// parseExtraction decodes the model answer, tolerating prose around the JSON object
func parseExtraction(content string) (*Extraction, error) {
	var extraction Extraction
	raw := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse extraction response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &extraction); err != nil {
			return nil, fmt.Errorf("failed to parse extraction response: %w", err)
		}
	}
	extraction.Project = strings.TrimSpace(extraction.Project)
	extraction.Task = strings.TrimSpace(extraction.Task)
	extraction.Date = strings.TrimSpace(extraction.Date)
	extraction.Time = strings.TrimSpace(extraction.Time)
	return &extraction, nil
}
