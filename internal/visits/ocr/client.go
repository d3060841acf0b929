package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// defaultTimeout bounds the vision call. A slow provider degrades a check-in
// to pending; it must never hang the request.
const defaultTimeout = 15 * time.Second

const roundelPrompt = `You are reading a London Underground station roundel from a photo.
Reply with a JSON object only: {"station_text": "<the station name on the sign, or empty if unreadable>", "confidence": <0.0-1.0>}`

// Client reads station roundels with an OpenAI vision model.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	matcher Matcher
}

// NewClient creates a roundel-reading client from the OPENAI_API_KEY env var.
// Returns nil, nil if the key is not set (graceful degradation: check-ins
// still work, they just land as pending).
func NewClient(matcher Matcher) (*Client, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, nil
	}

	model := strings.TrimSpace(os.Getenv("OCR_MODEL"))
	if model == "" {
		model = defaultModel
	}

	timeout := defaultTimeout
	if raw := os.Getenv("OCR_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid OCR_TIMEOUT %q: %w", raw, err)
		}
		timeout = parsed
	}

	if matcher == nil {
		matcher = FoldMatcher{}
	}

	return &Client{
		api:     openai.NewClient(key),
		model:   model,
		timeout: timeout,
		matcher: matcher,
	}, nil
}

type roundelRead struct {
	StationText string  `json:"station_text"`
	Confidence  float64 `json:"confidence"`
}

// VerifyImage sends the photo to the vision model and matches the read
// against the candidate names. Network errors, timeouts and malformed
// responses come back as errors; callers fold them into a failed read.
func (c *Client) VerifyImage(ctx context.Context, imageB64 string, candidates []string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	t0 := time.Now()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   100,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: roundelPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + imageB64,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("roundel read request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("roundel read returned no choices")
	}

	var read roundelRead
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &read); err != nil {
		return Result{}, fmt.Errorf("decoding roundel read %q: %w", resp.Choices[0].Message.Content, err)
	}

	result := Result{
		Confidence:     read.Confidence,
		StationTextRaw: read.StationText,
	}
	if read.StationText == "" {
		log.Printf("[ocr] model=%s unreadable duration=%dms", c.model, time.Since(t0).Milliseconds())
		return result, nil
	}

	if len(candidates) > 0 {
		result.Success = c.matcher.Match(read.StationText, candidates)
	} else {
		result.Success = true
	}

	log.Printf("[ocr] model=%s read=%q matched=%t confidence=%.2f duration=%dms",
		c.model, read.StationText, result.Success, read.Confidence, time.Since(t0).Milliseconds())

	return result, nil
}
