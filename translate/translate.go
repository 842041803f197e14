package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://api.openai.com/v1/responses"

// DefaultPrompt asks for a translation and nothing else, preserving the
// source formatting.
const DefaultPrompt = "Translate the following text into Traditional Chinese. " +
	"Keep the original formatting and reply with nothing but the translation:\n"

// TranslationError covers quota, auth and network failures of the
// translation endpoint. Record-scoped: the caller retries the record on the
// next run.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed: %v", e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// Client calls an OpenAI-compatible Responses API.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	prompt     string
	httpClient *http.Client
}

func NewClient(apiKey, model, prompt string) *Client {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Client{
		endpoint: defaultEndpoint,
		apiKey:   apiKey,
		model:    model,
		prompt:   prompt,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type responsesRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type responsesReply struct {
	Output []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Translate returns the translated form of text.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if c.apiKey == "" || c.model == "" {
		return "", &TranslationError{Err: fmt.Errorf("client misconfigured: missing api key or model")}
	}

	body, err := json.Marshal(responsesRequest{
		Model: c.model,
		Input: c.prompt + text,
	})
	if err != nil {
		return "", &TranslationError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &TranslationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TranslationError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TranslationError{Err: err}
	}

	var reply responsesReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", &TranslationError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if reply.Error != nil {
			msg = reply.Error.Message
		}
		return "", &TranslationError{Err: fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, msg)}
	}

	var out bytes.Buffer
	for _, item := range reply.Output {
		for _, content := range item.Content {
			if content.Type == "output_text" {
				out.WriteString(content.Text)
			}
		}
	}
	if out.Len() == 0 {
		return "", &TranslationError{Err: fmt.Errorf("endpoint returned no output text")}
	}
	return out.String(), nil
}
