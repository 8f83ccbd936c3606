package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

type HuggingFaceService struct {
	token        string
	registryURL  string
	inferenceURL string
	owner        string
	client       *http.Client
}

func NewHuggingFaceService(cfg ServiceConfig) *HuggingFaceService {
	if cfg.RegistryURL == "" {
		cfg.RegistryURL = DefaultRegistryURL
	}
	if cfg.InferenceURL == "" {
		cfg.InferenceURL = DefaultInferenceURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &HuggingFaceService{
		token:        cfg.Token,
		registryURL:  strings.TrimRight(cfg.RegistryURL, "/"),
		inferenceURL: strings.TrimRight(cfg.InferenceURL, "/"),
		owner:        cfg.ModelOwner,
		client:       &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *HuggingFaceService) Name() string {
	return "huggingface"
}

// ModelName returns the repository id of the opus-mt model for pair, e.g.
// "Helsinki-NLP/opus-mt-fr-en".
func (s *HuggingFaceService) ModelName(pair Pair) string {
	name := fmt.Sprintf("opus-mt-%s-%s", pair.From, pair.To)
	if s.owner == "" {
		return name
	}
	return s.owner + "/" + name
}

// Exists reports whether the registry knows a direct model for pair. Any
// status other than 200 means no; only transport failures are errors.
func (s *HuggingFaceService) Exists(ctx context.Context, pair Pair) (bool, error) {
	url := fmt.Sprintf("%s/%s", s.registryURL, s.ModelName(pair))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("model lookup failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}

// Infer runs the pair's model on text and returns the translation.
func (s *HuggingFaceService) Infer(ctx context.Context, text string, pair Pair) (string, error) {
	url := fmt.Sprintf("%s/%s", s.inferenceURL, s.ModelName(pair))

	jsonData, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{Op: "inference", StatusCode: resp.StatusCode, Body: string(body)}
	}

	return parseTranslation(body)
}

// parseTranslation accepts either [{...}, ...] or {...}. The record's
// translation_text wins; otherwise the first value in document order is
// used, whatever its key.
func parseTranslation(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	res := gjson.ParseBytes(body)
	switch {
	case res.IsArray():
		first := res.Get("0")
		if !first.Exists() {
			return "", fmt.Errorf("%w: empty array", ErrMalformedResponse)
		}
		if !first.IsObject() {
			return "", fmt.Errorf("%w: array element is %s, not an object", ErrMalformedResponse, first.Type)
		}
		return recordTranslation(first)
	case res.IsObject():
		return recordTranslation(res)
	default:
		return "", fmt.Errorf("%w: unexpected %s body", ErrMalformedResponse, res.Type)
	}
}

func recordTranslation(rec gjson.Result) (string, error) {
	if v := rec.Get("translation_text"); v.Exists() && v.String() != "" {
		return v.String(), nil
	}

	var first gjson.Result
	found := false
	rec.ForEach(func(_, value gjson.Result) bool {
		first = value
		found = true
		return false
	})
	if !found {
		return "", fmt.Errorf("%w: empty record", ErrMalformedResponse)
	}
	return first.String(), nil
}
