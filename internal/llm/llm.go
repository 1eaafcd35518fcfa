// Package llm builds model-specific prompts, calls the upstream LLM
// through an OpenAI-compatible endpoint, and defensively normalizes the
// responses. Model output is untrusted text that only usually matches the
// requested shape; this package strips formatting noise, parses
// defensively, and guarantees a minimal always-valid result — it never
// re-derives scores itself.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	logger "github.com/sirupsen/logrus"

	"github.com/repojudge/repojudge/internal/models"
)

// Symbolic model names map to concrete upstream identifiers. Unknown names
// fall back to flash — availability over strictness for this parameter.
var modelNames = map[string]string{
	"flash": "gemini-2.0-flash-exp",
	"pro":   "gemini-1.5-pro",
}

// ResolveModel maps a symbolic model choice to its upstream identifier.
func ResolveModel(choice string) string {
	if name, ok := modelNames[choice]; ok {
		return name
	}
	return modelNames["flash"]
}

// GenerationError wraps an upstream failure during README generation.
// There is no safe default for free-text output, so it surfaces hard.
type GenerationError struct{ Err error }

func (e *GenerationError) Error() string { return "generating README: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// ChatError wraps an upstream failure during a chat turn.
type ChatError struct{ Err error }

func (e *ChatError) Error() string { return "chat: " + e.Err.Error() }
func (e *ChatError) Unwrap() error { return e.Err }

// Dispatcher turns context bundles into model calls. Clients come from the
// injected pool, keyed by the caller's API key.
type Dispatcher struct {
	pool *Pool
}

func NewDispatcher(pool *Pool) *Dispatcher {
	return &Dispatcher{pool: pool}
}

// Request carries the shared inputs of every operation.
type Request struct {
	RepoName string
	Bundle   *models.ContextBundle
	Language string
	Model    string
	APIKey   string
}

// GenerateReadme produces README markdown. The model sometimes wraps its
// output in fences despite instructions; those are stripped server-side.
func (d *Dispatcher) GenerateReadme(ctx context.Context, req Request) (string, error) {
	prompt := readmePrompt(req.RepoName, req.Bundle.ManifestExcerpt(manifestLimit), req.Bundle.FileContents, req.Language)

	text, err := d.complete(ctx, req, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, 0.9, 8192)
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	text = StripCodeFences(text)
	// A ```markdown opener sometimes survives as a bare language tag.
	text = strings.TrimPrefix(text, "markdown\n")
	return strings.TrimSpace(text), nil
}

// AnalyzeRepo produces a structured quality report. Parse failures are
// recovered: the caller always receives a schema-valid (possibly degraded)
// result, because the dashboard must render something.
func (d *Dispatcher) AnalyzeRepo(ctx context.Context, req Request) (*models.AnalysisResult, error) {
	prompt := analysisPrompt(req.RepoName, req.Bundle.ManifestExcerpt(manifestLimit), req.Bundle.FileContents)

	text, err := d.complete(ctx, req, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, 0.9, 8192)
	if err != nil {
		logger.Errorf("Analysis call for %s failed: %v", req.RepoName, err)
		return models.DegradedAnalysis(err.Error()), nil
	}

	var analysis models.AnalysisResult
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &analysis); err != nil {
		logger.Errorf("Analysis response for %s is not valid JSON: %v", req.RepoName, err)
		return models.DegradedAnalysis("model returned malformed JSON"), nil
	}

	analysis.Normalize()
	return &analysis, nil
}

// ChatWithRepo answers one chat turn grounded in the repository context.
// The turn sequence is: system/context turn, a canned acknowledgment from
// the model, the caller-supplied history, then the new message.
func (d *Dispatcher) ChatWithRepo(ctx context.Context, req Request, history []models.ChatTurn, message string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: chatSystemPrompt(req.RepoName, req.Bundle.ManifestExcerpt(manifestLimit), req.Bundle.FileContents, req.Language)},
		{Role: openai.ChatMessageRoleAssistant, Content: chatAck(req.Language)},
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleAssistant
		if turn.Role == "user" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	reply, err := d.complete(ctx, req, messages, 0.8, 2000)
	if err != nil {
		return "", &ChatError{Err: err}
	}
	return strings.TrimSpace(reply), nil
}

func (d *Dispatcher) complete(ctx context.Context, req Request, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error) {
	resp, err := d.pool.client(req.APIKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       ResolveModel(req.Model),
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("LLM call for %s: %w", req.RepoName, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned for %s", req.RepoName)
	}
	return resp.Choices[0].Message.Content, nil
}
