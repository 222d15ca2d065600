package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/auth"
	"github.com/axgate/llmgw/internal/infrastructure/breaker"
	"github.com/axgate/llmgw/internal/infrastructure/cache"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/anthropic"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/gemini"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/openai"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/openairesponses"
	"github.com/axgate/llmgw/internal/infrastructure/dispatcher"
	"github.com/axgate/llmgw/internal/infrastructure/ratelimit"
	"github.com/axgate/llmgw/internal/infrastructure/resolver"
	"github.com/axgate/llmgw/internal/infrastructure/selector"
	"github.com/axgate/llmgw/internal/infrastructure/sticky"
	"github.com/axgate/llmgw/internal/infrastructure/telemetry"
	apperrors "github.com/axgate/llmgw/pkg/errors"
)

// --- fake repositories, just enough of each interface to seed one model
// with one binding behind a fake upstream. ---

type fakeModelRepo struct{ byName map[string]*entity.Model }

func (f *fakeModelRepo) FindByID(_ context.Context, id uint) (*entity.Model, error) {
	for _, m := range f.byName {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, apperrors.NewNotFoundError("model not found")
}
func (f *fakeModelRepo) FindByName(_ context.Context, name string) (*entity.Model, error) {
	m, ok := f.byName[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("model not found")
	}
	return m, nil
}
func (f *fakeModelRepo) List(_ context.Context, _ valueobject.Pagination) ([]*entity.Model, int64, error) {
	rows := make([]*entity.Model, 0, len(f.byName))
	for _, m := range f.byName {
		rows = append(rows, m)
	}
	return rows, int64(len(rows)), nil
}
func (f *fakeModelRepo) Create(context.Context, *entity.Model) error   { return nil }
func (f *fakeModelRepo) Update(context.Context, *entity.Model) error   { return nil }
func (f *fakeModelRepo) SoftDelete(context.Context, uint) (int64, error) { return 0, nil }

type fakeBindingRepo struct{ byModel map[uint][]*entity.Binding }

func (f *fakeBindingRepo) FindByID(_ context.Context, id uint) (*entity.Binding, error) {
	for _, bs := range f.byModel {
		for _, b := range bs {
			if b.ID == id {
				return b, nil
			}
		}
	}
	return nil, apperrors.NewNotFoundError("binding not found")
}
func (f *fakeBindingRepo) ListEnabledForModel(_ context.Context, modelID uint) ([]*entity.Binding, error) {
	return f.byModel[modelID], nil
}
func (f *fakeBindingRepo) List(context.Context, valueobject.Pagination) ([]*entity.Binding, int64, error) {
	return nil, 0, nil
}
func (f *fakeBindingRepo) Create(context.Context, *entity.Binding) error   { return nil }
func (f *fakeBindingRepo) Update(context.Context, *entity.Binding) error   { return nil }
func (f *fakeBindingRepo) SoftDelete(context.Context, uint) (int64, error) { return 0, nil }

type fakeProviderRepo struct{ byID map[uint]*entity.Provider }

func (f *fakeProviderRepo) FindByID(_ context.Context, id uint) (*entity.Provider, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("provider not found")
	}
	return p, nil
}
func (f *fakeProviderRepo) FindByName(context.Context, string) (*entity.Provider, error) {
	return nil, apperrors.NewNotFoundError("provider not found")
}
func (f *fakeProviderRepo) List(context.Context, valueobject.Pagination) ([]*entity.Provider, int64, error) {
	return nil, 0, nil
}
func (f *fakeProviderRepo) Create(context.Context, *entity.Provider) error   { return nil }
func (f *fakeProviderRepo) Update(context.Context, *entity.Provider) error   { return nil }
func (f *fakeProviderRepo) SoftDelete(context.Context, uint) (int64, error) { return 0, nil }

type fakeChatLogRepo struct{ created []*entity.ChatLog }

func (f *fakeChatLogRepo) Create(_ context.Context, log *entity.ChatLog) (uint, error) {
	log.ID = uint(len(f.created) + 1)
	f.created = append(f.created, log)
	return log.ID, nil
}
func (f *fakeChatLogRepo) List(context.Context, valueobject.Pagination) ([]*entity.ChatLog, int64, error) {
	return nil, 0, nil
}
func (f *fakeChatLogRepo) Cleanup(context.Context, repository.CleanupSpec) (int64, error) {
	return 0, nil
}
func (f *fakeChatLogRepo) Recent(context.Context, string, int) ([]*entity.ChatLog, error) {
	return nil, nil
}

type fakeChatIORepo struct{ created []*entity.ChatIO }

func (f *fakeChatIORepo) Create(_ context.Context, io *entity.ChatIO) error {
	f.created = append(f.created, io)
	return nil
}
func (f *fakeChatIORepo) FindByLogID(context.Context, uint) (*entity.ChatIO, error) {
	return nil, nil
}

type fakeAuthKeyRepo struct{ byKey map[string]*entity.AuthKey }

func (f *fakeAuthKeyRepo) FindByID(_ context.Context, id uint) (*entity.AuthKey, error) {
	for _, k := range f.byKey {
		if k.ID == id {
			return k, nil
		}
	}
	return nil, apperrors.NewNotFoundError("not found")
}
func (f *fakeAuthKeyRepo) FindByKey(_ context.Context, key string) (*entity.AuthKey, error) {
	k, ok := f.byKey[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("not found")
	}
	return k, nil
}
func (f *fakeAuthKeyRepo) List(context.Context, valueobject.Pagination) ([]*entity.AuthKey, int64, error) {
	return nil, 0, nil
}
func (f *fakeAuthKeyRepo) Create(context.Context, *entity.AuthKey) error { return nil }
func (f *fakeAuthKeyRepo) Update(context.Context, *entity.AuthKey) error { return nil }
func (f *fakeAuthKeyRepo) SoftDelete(context.Context, uint) (int64, error) {
	return 0, nil
}
func (f *fakeAuthKeyRepo) RecordUsage(context.Context, uint, time.Time) error { return nil }

// --- test harness: a real authenticator + real dispatcher wired the same
// way cmd/gateway/main.go wires them, pointed at an httptest upstream. ---

type harness struct {
	auth       *auth.Authenticator
	dispatcher *dispatcher.Dispatcher
	models     *fakeModelRepo
	bindings   *fakeBindingRepo
	providers  *fakeProviderRepo
	authKeys   *fakeAuthKeyRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	models := &fakeModelRepo{byName: map[string]*entity.Model{}}
	bindings := &fakeBindingRepo{byModel: map[uint][]*entity.Binding{}}
	providers := &fakeProviderRepo{byID: map[uint]*entity.Provider{}}
	store := cache.NewMemoryStore()
	health := breaker.NewStore(breaker.DefaultConfig())

	res := resolver.New(models, bindings, providers, store, health)
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	limiter := ratelimit.NewLimiter(logger, stop)
	locks := sticky.New(store, logger)

	logs := &fakeChatLogRepo{}
	ioRepo := &fakeChatIORepo{}
	metrics := telemetry.NewMetrics()
	sink := telemetry.NewSink(logs, ioRepo, metrics, logger)
	tracer := telemetry.NewTracer(telemetry.NewTracerProvider())

	strategies := map[entity.Strategy]selector.Strategy{
		entity.StrategyLottery: selector.Lottery{},
		entity.StrategyRotor:   selector.NewRotor(),
	}

	d := dispatcher.New(res, strategies, health, limiter, locks, http.DefaultClient, sink, metrics, tracer, logger)

	authKeys := &fakeAuthKeyRepo{byKey: map[string]*entity.AuthKey{
		"sk-good": {ID: 1, Status: true, AllowAll: true},
	}}
	authenticator := auth.New(authKeys, logger)

	return &harness{
		auth:       authenticator,
		dispatcher: d,
		models:     models,
		bindings:   bindings,
		providers:  providers,
		authKeys:   authKeys,
	}
}

func (h *harness) addModel(m *entity.Model) {
	h.models.byName[m.Name] = m
}

func (h *harness) addBinding(b *entity.Binding, p *entity.Provider) {
	h.providers.byID[p.ID] = p
	h.bindings.byModel[b.ModelID] = append(h.bindings.byModel[b.ModelID], b)
}

const openaiSuccessBody = `{"choices":[{"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`

func TestOpenAIHandler_ChatCompletions_HappyPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(openaiSuccessBody))
	}))
	defer upstream.Close()

	h := newHarness(t)
	h.addModel(&entity.Model{ID: 1, Name: "gpt-demo", MaxRetry: 2, Strategy: entity.StrategyLottery})
	h.addBinding(
		&entity.Binding{ID: 10, ModelID: 1, ProviderID: 100, ProviderModel: "gpt-4o", Status: true, Weight: 1},
		&entity.Provider{ID: 100, Name: "prov-a", Type: entity.ProviderOpenAI, Config: entity.ProviderConfig{BaseURL: upstream.URL, APIKey: "k"}},
	)

	handler := NewOpenAIHandler(h.auth, h.dispatcher, zap.NewNop())
	router := gin.New()
	router.POST("/v1/chat/completions", handler.ChatCompletions)

	body := `{"model":"gpt-demo","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer sk-good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hi there")
}

func TestOpenAIHandler_ChatCompletions_Unauthorized(t *testing.T) {
	h := newHarness(t)
	handler := NewOpenAIHandler(h.auth, h.dispatcher, zap.NewNop())
	router := gin.New()
	router.POST("/v1/chat/completions", handler.ChatCompletions)

	body := `{"model":"gpt-demo","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request_error")
}

func TestOpenAIHandler_ChatCompletions_MalformedBody(t *testing.T) {
	h := newHarness(t)
	handler := NewOpenAIHandler(h.auth, h.dispatcher, zap.NewNop())
	router := gin.New()
	router.POST("/v1/chat/completions", handler.ChatCompletions)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader("not json"))
	req.Header.Set("Authorization", "Bearer sk-good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnthropicHandler_CountTokens(t *testing.T) {
	h := newHarness(t)
	handler := NewAnthropicHandler(h.auth, h.dispatcher, zap.NewNop())
	router := gin.New()
	router.POST("/v1/messages/count_tokens", handler.CountTokens)

	body := `{"model":"claude-demo","max_tokens":100,"system":"be terse","messages":[{"role":"user","content":[{"type":"text","text":"hello there"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/count_tokens", strings.NewReader(body))
	req.Header.Set("x-api-key", "sk-good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "input_tokens")
}

func TestAnthropicHandler_CountTokens_Unauthorized(t *testing.T) {
	h := newHarness(t)
	handler := NewAnthropicHandler(h.auth, h.dispatcher, zap.NewNop())
	router := gin.New()
	router.POST("/v1/messages/count_tokens", handler.CountTokens)

	body := `{"model":"claude-demo","max_tokens":100,"messages":[{"role":"user","content":[{"type":"text","text":"hello"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/count_tokens", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSplitModelAction(t *testing.T) {
	model, action := splitModelAction("gemini-demo:streamGenerateContent")
	assert.Equal(t, "gemini-demo", model)
	assert.Equal(t, "streamGenerateContent", action)

	model, action = splitModelAction("gemini-demo:generateContent")
	assert.Equal(t, "gemini-demo", model)
	assert.Equal(t, "generateContent", action)

	model, action = splitModelAction("gemini-demo")
	assert.Equal(t, "gemini-demo", model)
	assert.Equal(t, "", action)
}

func TestGeminiHandler_GenerateContent_HappyPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"hi"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":2,"totalTokenCount":5}}`))
	}))
	defer upstream.Close()

	h := newHarness(t)
	h.addModel(&entity.Model{ID: 2, Name: "gemini-demo", MaxRetry: 1, Strategy: entity.StrategyLottery})
	h.addBinding(
		&entity.Binding{ID: 20, ModelID: 2, ProviderID: 200, ProviderModel: "gemini-1.5-flash", Status: true, Weight: 1},
		&entity.Provider{ID: 200, Name: "prov-g", Type: entity.ProviderGemini, Config: entity.ProviderConfig{BaseURL: upstream.URL, APIKey: "k"}},
	)

	handler := NewGeminiHandler(h.auth, h.dispatcher, h.models, zap.NewNop())
	router := gin.New()
	router.POST("/v1beta/models/:modelAction", handler.GenerateContent)

	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-demo:generateContent", strings.NewReader(`{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`))
	req.Header.Set("x-goog-api-key", "sk-good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "candidates")
}

func TestGeminiHandler_ListModels(t *testing.T) {
	h := newHarness(t)
	h.addModel(&entity.Model{ID: 1, Name: "gemini-demo"})
	deleted := time.Now()
	h.addModel(&entity.Model{ID: 2, Name: "retired-model", DeletedAt: &deleted})

	handler := NewGeminiHandler(h.auth, h.dispatcher, h.models, zap.NewNop())
	router := gin.New()
	router.GET("/v1beta/models", handler.ListModels)

	req := httptest.NewRequest(http.MethodGet, "/v1beta/models", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "models/gemini-demo")
	assert.NotContains(t, rec.Body.String(), "retired-model")
}

func TestModelsHandler_List(t *testing.T) {
	h := newHarness(t)
	h.addModel(&entity.Model{ID: 1, Name: "gpt-demo"})
	deleted := time.Now()
	h.addModel(&entity.Model{ID: 2, Name: "retired-model", DeletedAt: &deleted})

	handler := NewModelsHandler(h.models, zap.NewNop())
	router := gin.New()
	router.GET("/v1/models", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gpt-demo")
	assert.NotContains(t, rec.Body.String(), "retired-model")
}

