package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/knowitapp/knowit-backend/internal/pkg/httpx"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
)

// GeneratedQuestion is the validated shape the model must produce.
type GeneratedQuestion struct {
	QuestionText string `json:"question_text"`
	Explanation  string `json:"explanation"`
}

// Client generates quiz questions from an answer via the Gemini API.
type Client interface {
	GenerateQuestion(ctx context.Context, answer, folderName string, includeFolderName bool) (*GeneratedQuestion, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("KNOWIT_GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing KNOWIT_GEMINI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("KNOWIT_GEMINI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("KNOWIT_GEMINI_MODEL"))
	if model == "" {
		model = "gemini-2.0-flash-001"
	}

	timeoutSec := 60
	if v := os.Getenv("KNOWIT_GEMINI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 2
	if v := os.Getenv("KNOWIT_GEMINI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	return &client{
		log:        log.With("service", "GeminiClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (e *geminiHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

const baseInstruction = `You are an expert quiz author. Given an answer supplied by the user, ` +
	`write exactly one short-answer quiz question whose only correct answer is that supplied answer, ` +
	`plus a brief explanation of why.

Rules:
- The question text must not contain the answer or any part of it.
- Never produce multiple-choice questions or open-ended "explain X" prompts.
- The question must be unambiguous: the supplied answer must be its single correct answer.

Output format:
- Respond with plain JSON only, no prose and no markdown fences:
{"question_text": "...", "explanation": "..."}`

type generateContentRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
	GenerationConfig  struct {
		MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *client) GenerateQuestion(ctx context.Context, answer, folderName string, includeFolderName bool) (*GeneratedQuestion, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, errors.New("answer required")
	}

	instruction := baseInstruction
	if includeFolderName && strings.TrimSpace(folderName) != "" {
		instruction += fmt.Sprintf("\n\nTheme:\n- Write the question around the topic %q.", strings.TrimSpace(folderName))
	}

	req := generateContentRequest{
		SystemInstruction: &content{Parts: []part{{Text: instruction}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: answer}}},
		},
	}
	req.GenerationConfig.MaxOutputTokens = 200

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)

	var resp generateContentResponse
	if err := c.do(ctx, "POST", path, req, &resp); err != nil {
		return nil, err
	}

	var raw strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			raw.WriteString(p.Text)
		}
	}

	return ParseGeneratedQuestion(raw.String())
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseGeneratedQuestion validates the model output: strips an optional
// markdown fence, then requires a JSON object with non-empty
// question_text and explanation.
func ParseGeneratedQuestion(text string) (*GeneratedQuestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("gemini returned an empty response")
	}

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var out GeneratedQuestion
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("gemini response is not valid JSON: %w", err)
	}
	if strings.TrimSpace(out.QuestionText) == "" || strings.TrimSpace(out.Explanation) == "" {
		return nil, errors.New("gemini response missing question_text or explanation")
	}
	return &out, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("gemini decode error: %w", uErr)
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Gemini request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}
