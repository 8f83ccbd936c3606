// Package main serves the translation API from AWS Lambda behind API Gateway.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/valpere/pivotran/internal"
	"github.com/valpere/pivotran/internal/config"
	"github.com/valpere/pivotran/internal/router"
	"github.com/valpere/pivotran/internal/server"
	"github.com/valpere/pivotran/internal/translator"
)

func main() {
	cfg, err := config.Load(config.New(), os.Getenv("PIVOTRAN_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Built once per container so the existence cache survives warm starts.
	r, err := router.New(translator.NewHuggingFaceService(cfg.HF), router.Config{CacheSize: cfg.Cache.Size}, logger)
	if err != nil {
		logger.Fatal("Failed to create router", zap.Error(err))
	}

	h := &handler{router: r, logger: logger, warmer: newLambdaWarmer()}
	lambda.Start(h.handleRequest)
}

type handler struct {
	router *router.Router
	logger *zap.Logger
	warmer warmer
}

func (h *handler) handleRequest(ctx context.Context, event json.RawMessage) (interface{}, error) {
	// Warmup detection (MUST be first - before any other processing)
	if warmup, ok := IsWarmupEvent(event); ok {
		return HandleWarmup(ctx, warmup, h.warmer, h.logger)
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, err
	}

	return h.handleAPI(ctx, req), nil
}

func (h *handler) handleAPI(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	path := strings.TrimSuffix(req.Path, "/")

	switch {
	case req.HTTPMethod == http.MethodOptions:
		return response(http.StatusNoContent, nil, req.Headers)
	case req.HTTPMethod == http.MethodGet && path == "/health":
		return response(http.StatusOK, map[string]string{"status": "ok"}, req.Headers)
	case req.HTTPMethod == http.MethodGet && path == "/languages":
		return response(http.StatusOK, server.ListLanguages(h.router), req.Headers)
	case req.HTTPMethod == http.MethodPost && path == "/translate":
		return response(http.StatusOK, h.translate(ctx, req), req.Headers)
	default:
		return response(http.StatusNotFound, map[string]string{"error": "not found"}, req.Headers)
	}
}

func (h *handler) translate(ctx context.Context, req events.APIGatewayProxyRequest) internal.TranslationResult {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return internal.Failed("invalid request body: " + err.Error())
		}
		body = decoded
	}

	tr, err := server.DecodeRequest(body, req.RequestContext.RequestID)
	if err != nil {
		return internal.Failed(err.Error())
	}
	return h.router.Translate(ctx, tr)
}

func response(status int, payload interface{}, reqHeaders map[string]string) events.APIGatewayProxyResponse {
	headers := map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS",
		"Access-Control-Allow-Headers": "*",
	}
	for k, v := range reqHeaders {
		if strings.EqualFold(k, "Access-Control-Request-Headers") && v != "" {
			headers["Access-Control-Allow-Headers"] = v
		}
	}

	if payload == nil {
		return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       `{"error":"failed to encode response","translated_text":""}`,
		}
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(body)}
}
