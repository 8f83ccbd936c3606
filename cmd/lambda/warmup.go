package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.uber.org/zap"
)

const (
	// WarmupSource identifies warmup events from CloudWatch
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy long enough for the self-invoked
	// ones to land on separate containers.
	WarmupDelay = 75 * time.Millisecond
)

// WarmupEvent represents the CloudWatch Event payload for warmup
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is the response returned by warmup operations
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// warmer starts count additional instances of this function.
type warmer interface {
	Invoke(ctx context.Context, count int) error
}

// IsWarmupEvent checks if the event is a warmup event
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var probe struct {
		Source      string   `json:"source"`
		Concurrency *float64 `json:"concurrency"`
	}
	if err := json.Unmarshal(event, &probe); err != nil {
		return nil, false
	}
	if probe.Source != WarmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: probe.Source}
	if probe.Concurrency != nil && *probe.Concurrency > 0 {
		warmup.Concurrency = int(*probe.Concurrency)
	}
	return warmup, true
}

// HandleWarmup processes a warmup event and optionally self-invokes
// to maintain multiple warm instances.
func HandleWarmup(ctx context.Context, warmup *WarmupEvent, w warmer, logger *zap.Logger) (interface{}, error) {
	instancesWarmed := 1

	if warmup.Concurrency > 0 && w != nil {
		if err := w.Invoke(ctx, warmup.Concurrency); err != nil {
			logger.Warn("Warmup self-invoke failed", zap.Int("concurrency", warmup.Concurrency), zap.Error(err))
		} else {
			instancesWarmed += warmup.Concurrency
		}
	}

	time.Sleep(WarmupDelay)

	return map[string]interface{}{
		"statusCode": 200,
		"body": WarmupResponse{
			Status:          "warm",
			InstancesWarmed: instancesWarmed,
		},
	}, nil
}

// lambdaWarmer self-invokes the running function asynchronously.
type lambdaWarmer struct {
	functionName string

	once   sync.Once
	client *lambdasdk.Client
	err    error
}

func newLambdaWarmer() *lambdaWarmer {
	return &lambdaWarmer{functionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME")}
}

func (w *lambdaWarmer) lambdaClient(ctx context.Context) (*lambdasdk.Client, error) {
	w.once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			w.err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		w.client = lambdasdk.NewFromConfig(cfg)
	})
	return w.client, w.err
}

func (w *lambdaWarmer) Invoke(ctx context.Context, count int) error {
	if w.functionName == "" {
		return fmt.Errorf("AWS_LAMBDA_FUNCTION_NAME is not set")
	}

	client, err := w.lambdaClient(ctx)
	if err != nil {
		return err
	}

	// Children must not fan out again.
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource, Concurrency: 0})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var invokeErr error
	var errMu sync.Mutex

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				errMu.Lock()
				if invokeErr == nil {
					invokeErr = err
				}
				errMu.Unlock()
			}
		}()
	}

	wg.Wait()
	return invokeErr
}
