// Package server exposes the router over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/pivotran/internal"
	"github.com/valpere/pivotran/internal/language"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// Translator is the part of the router the HTTP layer needs.
type Translator interface {
	Translate(ctx context.Context, req internal.TranslationRequest) internal.TranslationResult
	Languages() *language.Set
	Pivot() string
}

// TranslatePayload is the POST /translate body.
type TranslatePayload struct {
	Text    string `json:"text"`
	SrcLang string `json:"src_lang"`
	TgtLang string `json:"tgt_lang"`
}

// LanguageInfo is one entry of GET /languages.
type LanguageInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// LanguagesResponse is the GET /languages body.
type LanguagesResponse struct {
	Languages []LanguageInfo `json:"languages"`
	Pivot     string         `json:"pivot"`
}

// DecodeRequest parses a POST /translate body, applying the default
// en -> es direction for omitted language fields.
func DecodeRequest(body []byte, id string) (internal.TranslationRequest, error) {
	payload := TranslatePayload{SrcLang: "en", TgtLang: "es"}
	if err := json.Unmarshal(body, &payload); err != nil {
		return internal.TranslationRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	if id == "" {
		id = uuid.New().String()
	}
	return internal.TranslationRequest{
		ID:         id,
		Text:       payload.Text,
		SourceLang: payload.SrcLang,
		TargetLang: payload.TgtLang,
		Timestamp:  time.Now(),
	}, nil
}

// ListLanguages describes the router's language set.
func ListLanguages(t Translator) LanguagesResponse {
	codes := t.Languages().Codes()
	out := LanguagesResponse{
		Languages: make([]LanguageInfo, 0, len(codes)),
		Pivot:     t.Pivot(),
	}
	for _, code := range codes {
		out.Languages = append(out.Languages, LanguageInfo{Code: code, Name: language.Name(code)})
	}
	return out
}

// New creates a gin engine with all routes configured.
func New(t Translator, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	r.Use(requestID())
	r.Use(ginLogger(logger))
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handler{translator: t}
	r.POST("/translate", h.translate)
	r.GET("/languages", h.languages)

	return r
}

type handler struct {
	translator Translator
}

// translate always answers 200; failures travel in the body.
func (h *handler) translate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, internal.Failed(fmt.Sprintf("failed to read request body: %v", err)))
		return
	}

	req, err := DecodeRequest(body, c.GetString(requestIDKey))
	if err != nil {
		c.JSON(http.StatusOK, internal.Failed(err.Error()))
		return
	}

	c.JSON(http.StatusOK, h.translator.Translate(c.Request.Context(), req))
}

func (h *handler) languages(c *gin.Context) {
	c.JSON(http.StatusOK, ListLanguages(h.translator))
}

// requestID reuses the caller's X-Request-ID or mints one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

// corsMiddleware allows every origin, method and header.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS")
		if req := c.GetHeader("Access-Control-Request-Headers"); req != "" {
			h.Set("Access-Control-Allow-Headers", req)
		} else {
			h.Set("Access-Control-Allow-Headers", "*")
		}
		h.Set("Access-Control-Expose-Headers", RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
