package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/valpere/pivotran/internal"
	"github.com/valpere/pivotran/internal/cache"
	"github.com/valpere/pivotran/internal/language"
	"github.com/valpere/pivotran/internal/translator"
)

type inferCall struct {
	text string
	pair translator.Pair
}

type mockHost struct {
	models     map[translator.Pair]bool
	existsFunc func(ctx context.Context, pair translator.Pair) (bool, error)
	inferFunc  func(ctx context.Context, text string, pair translator.Pair) (string, error)

	existsCount atomic.Int32

	mu    sync.Mutex
	calls []inferCall
}

func (m *mockHost) Exists(ctx context.Context, pair translator.Pair) (bool, error) {
	m.existsCount.Add(1)
	if m.existsFunc != nil {
		return m.existsFunc(ctx, pair)
	}
	return m.models[pair], nil
}

func (m *mockHost) Infer(ctx context.Context, text string, pair translator.Pair) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, inferCall{text: text, pair: pair})
	m.mu.Unlock()
	if m.inferFunc != nil {
		return m.inferFunc(ctx, text, pair)
	}
	return fmt.Sprintf("[%s:%s]", pair, text), nil
}

func (m *mockHost) inferCalls() []inferCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]inferCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func newTestRouter(t *testing.T, host translator.ModelHost) *Router {
	t.Helper()
	r, err := New(host, Config{}, nil)
	if err != nil {
		t.Fatalf("failed to create router: %v", err)
	}
	return r
}

func request(text, src, tgt string) internal.TranslationRequest {
	return internal.TranslationRequest{ID: "test", Text: text, SourceLang: src, TargetLang: tgt}
}

func TestNew_Defaults(t *testing.T) {
	r := newTestRouter(t, &mockHost{})

	if r.Pivot() != "en" {
		t.Errorf("expected pivot en, got %q", r.Pivot())
	}
	if r.Languages().Len() != len(language.DefaultCodes) {
		t.Errorf("expected default language set, got %d codes", r.Languages().Len())
	}
}

func TestNew_NilHost(t *testing.T) {
	if _, err := New(nil, Config{}, nil); err == nil {
		t.Error("expected error for nil host")
	}
}

func TestNew_InvalidCacheSize(t *testing.T) {
	if _, err := New(&mockHost{}, Config{CacheSize: -1}, nil); err == nil {
		t.Error("expected error for negative cache size")
	}
}

func TestTranslate_UnsupportedLanguage(t *testing.T) {
	host := &mockHost{}
	r := newTestRouter(t, host)

	cases := [][2]string{{"xx", "es"}, {"en", "ur"}, {"", "es"}, {"en", "en-us"}}
	for _, c := range cases {
		res := r.Translate(context.Background(), request("Hello", c[0], c[1]))

		if res.TranslatedText != "" {
			t.Errorf("%v: expected empty translation, got %q", c, res.TranslatedText)
		}
		if !strings.HasPrefix(res.Error, "Supported languages: ") {
			t.Errorf("%v: unexpected error %q", c, res.Error)
		}
		for _, code := range language.DefaultCodes {
			if !strings.Contains(res.Error, code) {
				t.Errorf("%v: error does not name %q", c, code)
			}
		}
	}

	if host.existsCount.Load() != 0 || len(host.inferCalls()) != 0 {
		t.Error("validation failures must not reach the model host")
	}
}

func TestTranslate_UnsupportedLanguageWinsOverEmptyText(t *testing.T) {
	r := newTestRouter(t, &mockHost{})

	res := r.Translate(context.Background(), request("   ", "xx", "es"))
	if !strings.HasPrefix(res.Error, "Supported languages: ") {
		t.Errorf("expected language error first, got %q", res.Error)
	}
}

func TestTranslate_EmptyText(t *testing.T) {
	host := &mockHost{}
	r := newTestRouter(t, host)

	for _, text := range []string{"", "   ", "\n\t "} {
		res := r.Translate(context.Background(), request(text, "en", "es"))

		if res.Error != "No text provided" {
			t.Errorf("text %q: expected 'No text provided', got %q", text, res.Error)
		}
		if res.TranslatedText != "" {
			t.Errorf("text %q: expected empty translation", text)
		}
	}

	if host.existsCount.Load() != 0 {
		t.Error("empty text must not trigger a model lookup")
	}
}

func TestTranslate_NormalizesInput(t *testing.T) {
	host := &mockHost{
		models: map[translator.Pair]bool{{From: "en", To: "es"}: true},
	}
	r := newTestRouter(t, host)

	res := r.Translate(context.Background(), request("  Hello  ", " EN ", "Es"))
	if !res.OK() {
		t.Fatalf("unexpected error: %s", res.Error)
	}

	calls := host.inferCalls()
	if len(calls) != 1 || calls[0].text != "Hello" || calls[0].pair != (translator.Pair{From: "en", To: "es"}) {
		t.Errorf("unexpected calls %+v", calls)
	}
}

func TestTranslate_Direct(t *testing.T) {
	host := &mockHost{
		models: map[translator.Pair]bool{{From: "en", To: "es"}: true},
		inferFunc: func(ctx context.Context, text string, pair translator.Pair) (string, error) {
			return "Hola mundo", nil
		},
	}
	r := newTestRouter(t, host)

	res := r.Translate(context.Background(), request("Hello world", "en", "es"))

	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.TranslatedText != "Hola mundo" {
		t.Errorf("expected verbatim model output, got %q", res.TranslatedText)
	}

	calls := host.inferCalls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 inference call, got %d", len(calls))
	}
	if calls[0].pair != (translator.Pair{From: "en", To: "es"}) {
		t.Errorf("expected en->es, got %s", calls[0].pair)
	}
}

func TestTranslate_Pivot(t *testing.T) {
	host := &mockHost{
		models: map[translator.Pair]bool{
			{From: "fr", To: "en"}: true,
			{From: "en", To: "de"}: true,
		},
		inferFunc: func(ctx context.Context, text string, pair translator.Pair) (string, error) {
			switch pair {
			case translator.Pair{From: "fr", To: "en"}:
				return "Good morning", nil
			case translator.Pair{From: "en", To: "de"}:
				return "Guten Morgen", nil
			}
			return "", fmt.Errorf("unexpected pair %s", pair)
		},
	}
	r := newTestRouter(t, host)

	res := r.Translate(context.Background(), request("Bonjour", "fr", "de"))

	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.TranslatedText != "Guten Morgen" {
		t.Errorf("expected second hop output, got %q", res.TranslatedText)
	}

	calls := host.inferCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 inference calls, got %d", len(calls))
	}
	if calls[0].pair != (translator.Pair{From: "fr", To: "en"}) || calls[0].text != "Bonjour" {
		t.Errorf("unexpected first call %+v", calls[0])
	}
	if calls[1].pair != (translator.Pair{From: "en", To: "de"}) || calls[1].text != "Good morning" {
		t.Errorf("second call must take the first call's output, got %+v", calls[1])
	}
}

func TestTranslate_NoPathWhenPivotSide(t *testing.T) {
	host := &mockHost{}
	r := newTestRouter(t, host)

	for _, c := range [][2]string{{"fr", "en"}, {"en", "fr"}, {"en", "en"}} {
		res := r.Translate(context.Background(), request("Bonjour", c[0], c[1]))

		want := fmt.Sprintf("No translation path for %s -> %s", c[0], c[1])
		if res.Error != want {
			t.Errorf("expected %q, got %q", want, res.Error)
		}
		if res.TranslatedText != "" {
			t.Error("expected empty translation")
		}
	}

	if n := len(host.inferCalls()); n != 0 {
		t.Errorf("expected no inference calls, got %d", n)
	}
}

func TestTranslate_CachesExistence(t *testing.T) {
	host := &mockHost{
		models: map[translator.Pair]bool{{From: "en", To: "es"}: true},
	}
	r := newTestRouter(t, host)

	for i := 0; i < 5; i++ {
		if res := r.Translate(context.Background(), request("Hello", "en", "es")); !res.OK() {
			t.Fatalf("unexpected error: %s", res.Error)
		}
	}

	if host.existsCount.Load() != 1 {
		t.Errorf("expected 1 existence check, got %d", host.existsCount.Load())
	}
}

func TestTranslate_CachesNegativeExistence(t *testing.T) {
	host := &mockHost{}
	r := newTestRouter(t, host)

	for i := 0; i < 3; i++ {
		r.Translate(context.Background(), request("Hola", "es", "en"))
	}

	if host.existsCount.Load() != 1 {
		t.Errorf("expected 1 existence check for a missing model, got %d", host.existsCount.Load())
	}
}

func TestHasDirectModel_EvictsLeastRecentlyUsed(t *testing.T) {
	host := &mockHost{}
	r := newTestRouter(t, host)
	ctx := context.Background()

	pair := func(i int) translator.Pair {
		return translator.Pair{From: fmt.Sprintf("p%d", i), To: "x"}
	}

	for i := 0; i <= cache.DefaultSize; i++ {
		if _, err := r.HasDirectModel(ctx, pair(i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := host.existsCount.Load(); got != cache.DefaultSize+1 {
		t.Fatalf("expected %d lookups, got %d", cache.DefaultSize+1, got)
	}

	// pair(1) is still cached, pair(0) was evicted.
	r.HasDirectModel(ctx, pair(1))
	if got := host.existsCount.Load(); got != cache.DefaultSize+1 {
		t.Errorf("expected cached pair to skip lookup, got %d lookups", got)
	}
	r.HasDirectModel(ctx, pair(0))
	if got := host.existsCount.Load(); got != cache.DefaultSize+2 {
		t.Errorf("expected evicted pair to be looked up again, got %d lookups", got)
	}
}

func TestTranslate_ExistenceCheckFailure(t *testing.T) {
	host := &mockHost{
		existsFunc: func(ctx context.Context, pair translator.Pair) (bool, error) {
			return false, errors.New("model lookup failed: connection refused")
		},
	}
	r := newTestRouter(t, host)

	res := r.Translate(context.Background(), request("Hello", "en", "es"))

	if res.Error != "model lookup failed: connection refused" {
		t.Errorf("unexpected error %q", res.Error)
	}
	if res.TranslatedText != "" {
		t.Error("expected empty translation")
	}

	// Failures are not cached.
	r.Translate(context.Background(), request("Hello", "en", "es"))
	if host.existsCount.Load() != 2 {
		t.Errorf("expected failed lookup to be retried on the next request, got %d", host.existsCount.Load())
	}
}

func TestTranslate_InferenceFailure(t *testing.T) {
	host := &mockHost{
		models: map[translator.Pair]bool{{From: "en", To: "es"}: true},
		inferFunc: func(ctx context.Context, text string, pair translator.Pair) (string, error) {
			return "", &translator.HTTPError{Op: "inference", StatusCode: 503, Body: "loading"}
		},
	}
	r := newTestRouter(t, host)

	res := r.Translate(context.Background(), request("Hello", "en", "es"))

	if res.Error != "HF inference error 503: loading" {
		t.Errorf("unexpected error %q", res.Error)
	}
	if res.TranslatedText != "" {
		t.Error("expected empty translation")
	}
}

func TestTranslate_PivotSecondHopFailure(t *testing.T) {
	host := &mockHost{
		inferFunc: func(ctx context.Context, text string, pair translator.Pair) (string, error) {
			if pair.From == "en" {
				return "", fmt.Errorf("%w: empty record", translator.ErrMalformedResponse)
			}
			return "intermediate", nil
		},
	}
	r := newTestRouter(t, host)

	res := r.Translate(context.Background(), request("Bonjour", "fr", "de"))

	if !strings.Contains(res.Error, "malformed inference response") {
		t.Errorf("unexpected error %q", res.Error)
	}
	if res.TranslatedText != "" {
		t.Error("expected empty translation, intermediate text must not leak")
	}
	if n := len(host.inferCalls()); n != 2 {
		t.Errorf("expected 2 inference calls, got %d", n)
	}
}

func TestTranslate_CustomLanguageSet(t *testing.T) {
	langs, err := language.NewSet([]string{"en", "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := New(&mockHost{}, Config{Languages: langs}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := r.Translate(context.Background(), request("Bonjour", "fr", "es"))
	if res.Error != "Supported languages: en, es" {
		t.Errorf("unexpected error %q", res.Error)
	}
}

func TestRoute(t *testing.T) {
	host := &mockHost{
		models: map[translator.Pair]bool{{From: "en", To: "es"}: true},
	}
	r := newTestRouter(t, host)
	ctx := context.Background()

	route, err := r.Route(ctx, "en", "es")
	if err != nil || len(route) != 1 {
		t.Errorf("expected direct route, got %v, %v", route, err)
	}

	route, err = r.Route(ctx, "ja", "ko")
	if err != nil || len(route) != 2 || route[0].To != "en" || route[1].From != "en" {
		t.Errorf("expected pivot route, got %v, %v", route, err)
	}

	if _, err = r.Route(ctx, "ja", "en"); !errors.Is(err, ErrNoPath) {
		t.Errorf("expected ErrNoPath, got %v", err)
	}
}

func TestTranslate_Concurrent(t *testing.T) {
	host := &mockHost{
		models: map[translator.Pair]bool{{From: "en", To: "es"}: true},
	}
	r := newTestRouter(t, host)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := r.Translate(context.Background(), request("Hello", "en", "es")); !res.OK() {
				t.Errorf("unexpected error: %s", res.Error)
			}
		}()
	}
	wg.Wait()

	// Racing misses may each check, but never more than once per request.
	if n := host.existsCount.Load(); n < 1 || n > 20 {
		t.Errorf("unexpected existence check count %d", n)
	}
}
