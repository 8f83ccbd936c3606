package translator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultRegistryURL  = "https://huggingface.co/api/models"
	DefaultInferenceURL = "https://api-inference.huggingface.co/models"
	DefaultModelOwner   = "Helsinki-NLP"
	DefaultTimeout      = 60 * time.Second
)

type ServiceConfig struct {
	Token        string        `mapstructure:"token" json:"-"`
	RegistryURL  string        `mapstructure:"registry_url" json:"registry_url"`
	InferenceURL string        `mapstructure:"inference_url" json:"inference_url"`
	ModelOwner   string        `mapstructure:"model_owner" json:"model_owner"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout"`
}

// Pair is a directed language pair, e.g. fr->en.
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (p Pair) String() string {
	return p.From + "->" + p.To
}

// ModelHost is the remote side of the proxy: a registry that knows which
// opus-mt models exist and an inference endpoint that runs them.
type ModelHost interface {
	Exists(ctx context.Context, pair Pair) (bool, error)
	Infer(ctx context.Context, text string, pair Pair) (string, error)
}

// ErrMalformedResponse is wrapped by every inference body parse failure.
var ErrMalformedResponse = errors.New("malformed inference response")

// HTTPError is returned when the model host answers with a non-200 status.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HF %s error %d: %s", e.Op, e.StatusCode, e.Body)
}
