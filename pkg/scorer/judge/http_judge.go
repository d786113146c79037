package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPJudge reaches a judge endpoint over plain HTTP: it POSTs the
// rendered prompt as JSON and parses the JSON object embedded in the
// response body. The endpoint is expected to return a raw 0-10 score;
// scorers normalize it to [0, 1] themselves.
//
// The response body is parsed leniently: only the substring between the
// first '{' and the last '}' is unmarshaled, tolerating a model that wraps
// its JSON in prose — ported from original_source
// agent-eval/api/src/scorers/llm_judge.py's _extract_json.
//
// Evaluate never returns a Go error for a judge failure: transport,
// status, and parse failures all degrade to the {score: 5, reason: "..."}
// sentinel per spec.md §4.3, leaving the calling scorer free to decide
// whether to fall back to a deterministic score instead.
type HTTPJudge struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewHTTPJudge builds an HTTPJudge with a sane default timeout.
func NewHTTPJudge(endpoint string) *HTTPJudge {
	return &HTTPJudge{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type judgeRequest struct {
	Prompt string `json:"prompt"`
}

func (j *HTTPJudge) Evaluate(ctx context.Context, prompt string) (Result, error) {
	body, err := json.Marshal(judgeRequest{Prompt: prompt})
	if err != nil {
		return sentinel(fmt.Sprintf("marshal judge request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.Endpoint, bytes.NewReader(body))
	if err != nil {
		return sentinel(fmt.Sprintf("build judge request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	client := j.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return sentinel(fmt.Sprintf("judge request failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return sentinel(fmt.Sprintf("read judge response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return sentinel(fmt.Sprintf("judge endpoint returned status %d: %s", resp.StatusCode, string(respBody)))
	}

	return extractJSON(respBody)
}

func extractJSON(body []byte) (Result, error) {
	s := string(body)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return sentinel(fmt.Sprintf("judge response did not contain a JSON object: %s", s))
	}

	var r Result
	if err := json.Unmarshal([]byte(s[start:end+1]), &r); err != nil {
		return sentinel(fmt.Sprintf("parse judge response: %v", err))
	}
	return r, nil
}
