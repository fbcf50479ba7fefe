package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"

	"livro-ai-api/internal/application/generation"
	"livro-ai-api/internal/config"
	"livro-ai-api/internal/infrastructure/persistence/memory"
	"livro-ai-api/internal/interfaces/http/handler"
	"livro-ai-api/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeChatModel 返回预设书稿的 ChatModel 测试替身
type fakeChatModel struct {
	reply  string
	chunks []string
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	out := make([]*schema.Message, 0, len(f.chunks))
	for _, chunk := range f.chunks {
		out = append(out, schema.AssistantMessage(chunk, nil))
	}
	return schema.StreamReaderFromArray(out), nil
}

type fakeFactory struct {
	chatModel *fakeChatModel
}

func (f *fakeFactory) Get(_ context.Context, _ string) (model.BaseChatModel, error) {
	return f.chatModel, nil
}

type testEnv struct {
	engine *gin.Engine
	model  *fakeChatModel
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Name = "livro-ai-api-test"
	cfg.Security.JWT = config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "livro-ai",
		Expiration:        3600000000000,  // 1h
		RefreshExpiration: 86400000000000, // 24h
	}

	cm := &fakeChatModel{
		reply:  "Entendido.",
		chunks: []string{"TÍTULO: A Ilha\n\n", "CAPÍTULO 1: Chegada\n", "O barco encostou."},
	}

	sessions := generation.NewManager(&fakeFactory{chatModel: cm}, "")
	orchestrator := generation.NewOrchestrator(sessions)

	userRepo := memory.NewUserStore()
	bookRepo := memory.NewBookStore()

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg.Security.JWT, userRepo, orchestrator),
		Book:      handler.NewBookHandler(bookRepo, nil, orchestrator),
		Workspace: handler.NewWorkspaceHandler(orchestrator),
		Health:    handler.NewHealthHandler(nil, nil),
	}

	return &testEnv{
		engine: router.New(cfg, handlers, nil).Engine(),
		model:  cm,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(&closeNotifyRecorder{w}, req)
	return w
}

// closeNotifyRecorder 为 httptest.ResponseRecorder 补上 gin Stream 所需的 CloseNotify
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool {
	return make(chan bool)
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email":    email,
		"password": "senha-segura-123",
		"name":     "Ana",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Data.AccessToken
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	token := env.register(t, "ana@example.com")
	if token == "" {
		t.Fatal("empty access token")
	}

	// 重复邮箱 409
	w := env.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email":    "ana@example.com",
		"password": "outra-senha-123",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d", w.Code)
	}

	// 登录成功
	w = env.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "senha-segura-123",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login status = %d, body = %s", w.Code, w.Body.String())
	}

	// 密码错误与用户不存在返回同样的 401
	for _, body := range []gin.H{
		{"email": "ana@example.com", "password": "errada-12345"},
		{"email": "ninguem@example.com", "password": "qualquer-123"},
	} {
		w = env.do(t, http.MethodPost, "/v1/auth/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("login status = %d, want 401", w.Code)
		}
		if !strings.Contains(w.Body.String(), "invalid email or password") {
			t.Errorf("login error message leaked detail: %s", w.Body.String())
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"邮箱格式错误", gin.H{"email": "not-an-email", "password": "senha-segura-123"}},
		{"密码过短", gin.H{"email": "a@b.com", "password": "curta"}},
		{"缺少字段", gin.H{"email": "a@b.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, "/v1/auth/register", "", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/v1/books", "/v1/workspace", "/v1/users/me"} {
		if w := env.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token status = %d, want 401", path, w.Code)
		}
	}

	if w := env.do(t, http.MethodGet, "/v1/books", "token-inválido", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("invalid token status = %d, want 401", w.Code)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "ana@example.com")

	w := env.do(t, http.MethodGet, "/v1/users/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ana@example.com") {
		t.Errorf("me body = %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("me body must not expose password fields")
	}
}

func TestGenerateStreamAndWorkspace(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "ana@example.com")

	w := env.do(t, http.MethodPost, "/v1/workspace/generate", token, gin.H{
		"topic": "uma ilha deserta",
		"genre": "Aventura",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event:content") {
		t.Errorf("missing content events: %s", body)
	}
	if !strings.Contains(body, "event:done") {
		t.Errorf("missing done event: %s", body)
	}

	// 工作区持有完整书稿
	w = env.do(t, http.MethodGet, "/v1/workspace", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("workspace status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "A Ilha") {
		t.Errorf("workspace body = %s", w.Body.String())
	}

	// 渲染
	w = env.do(t, http.MethodGet, "/v1/workspace/render", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("render status = %d", w.Code)
	}
	var renderResp struct {
		Data struct {
			Title  string `json:"title"`
			Blocks []struct {
				Kind string `json:"kind"`
			} `json:"blocks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &renderResp); err != nil {
		t.Fatalf("decode render: %v", err)
	}
	if renderResp.Data.Title != "A Ilha" {
		t.Errorf("render title = %q", renderResp.Data.Title)
	}
	if len(renderResp.Data.Blocks) == 0 || renderResp.Data.Blocks[0].Kind != "title" {
		t.Errorf("render blocks = %+v", renderResp.Data.Blocks)
	}
}

func TestGenerateValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "ana@example.com")

	// 空主题
	w := env.do(t, http.MethodPost, "/v1/workspace/generate", token, gin.H{"topic": "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank topic status = %d, want 400", w.Code)
	}

	// 空工作区上的改写类动作
	for _, path := range []string{"/v1/workspace/continue", "/v1/workspace/expand", "/v1/workspace/dialogue"} {
		if w := env.do(t, http.MethodPost, path, token, nil); w.Code != http.StatusBadRequest {
			t.Errorf("POST %s on empty workspace status = %d, want 400", path, w.Code)
		}
	}

	// 整理缺少字段
	w = env.do(t, http.MethodPost, "/v1/workspace/organize", token, gin.H{"mode": "insert"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("organize missing fields status = %d, want 400", w.Code)
	}
}

func TestSaveListLoadDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "ana@example.com")

	// 空工作区不可保存
	if w := env.do(t, http.MethodPost, "/v1/books", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("save empty workspace status = %d, want 400", w.Code)
	}

	// 生成后保存
	if w := env.do(t, http.MethodPost, "/v1/workspace/generate", token, gin.H{"topic": "uma ilha"}); w.Code != http.StatusOK {
		t.Fatalf("generate status = %d", w.Code)
	}
	w := env.do(t, http.MethodPost, "/v1/books", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}
	var saveResp struct {
		Data struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &saveResp); err != nil {
		t.Fatalf("decode save: %v", err)
	}
	if saveResp.Data.Title != "A Ilha" {
		t.Errorf("saved title = %q, want extracted from TÍTULO line", saveResp.Data.Title)
	}

	// 列表
	w = env.do(t, http.MethodGet, "/v1/books", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), saveResp.Data.ID) {
		t.Errorf("list status = %d, body = %s", w.Code, w.Body.String())
	}

	// 载入
	w = env.do(t, http.MethodPost, fmt.Sprintf("/v1/books/%s/load", saveResp.Data.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("load status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"primed":true`) {
		t.Errorf("load body = %s", w.Body.String())
	}

	// 删除
	w = env.do(t, http.MethodDelete, "/v1/books/"+saveResp.Data.ID, token, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/v1/books/"+saveResp.Data.ID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestBooksAreOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	tokenAna := env.register(t, "ana@example.com")
	tokenBia := env.register(t, "bia@example.com")

	env.do(t, http.MethodPost, "/v1/workspace/generate", tokenAna, gin.H{"topic": "uma ilha"})
	w := env.do(t, http.MethodPost, "/v1/books", tokenAna, nil)
	var saveResp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &saveResp)

	// 他人的书不可见、不可载入
	if w := env.do(t, http.MethodGet, "/v1/books/"+saveResp.Data.ID, tokenBia, nil); w.Code != http.StatusNotFound {
		t.Errorf("cross-owner get status = %d, want 404", w.Code)
	}
	if w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/books/%s/load", saveResp.Data.ID), tokenBia, nil); w.Code != http.StatusNotFound {
		t.Errorf("cross-owner load status = %d, want 404", w.Code)
	}

	// 他人删除是 no-op
	env.do(t, http.MethodDelete, "/v1/books/"+saveResp.Data.ID, tokenBia, nil)
	if w := env.do(t, http.MethodGet, "/v1/books/"+saveResp.Data.ID, tokenAna, nil); w.Code != http.StatusOK {
		t.Errorf("book vanished after cross-owner delete, status = %d", w.Code)
	}
}

func TestWorkspaceReset(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "ana@example.com")

	env.do(t, http.MethodPost, "/v1/workspace/generate", token, gin.H{"topic": "uma ilha"})

	if w := env.do(t, http.MethodPost, "/v1/workspace/reset", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("reset status = %d", w.Code)
	}

	w := env.do(t, http.MethodGet, "/v1/workspace", token, nil)
	if !strings.Contains(w.Body.String(), `"generated":false`) {
		t.Errorf("workspace after reset = %s", w.Body.String())
	}
	if w := env.do(t, http.MethodGet, "/v1/workspace/render", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("render after reset status = %d, want 400", w.Code)
	}
}

func TestGenres(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "ana@example.com")

	w := env.do(t, http.MethodGet, "/v1/genres", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("genres status = %d", w.Code)
	}
	for _, genre := range []string{"Comédia", "Ficção Científica", "Terror"} {
		if !strings.Contains(w.Body.String(), genre) {
			t.Errorf("genres missing %q: %s", genre, w.Body.String())
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/live"} {
		if w := env.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, w.Code)
		}
	}
	// 无外部依赖时 ready 按 disabled 上报且就绪
	if w := env.do(t, http.MethodGet, "/ready", "", nil); w.Code != http.StatusOK {
		t.Errorf("GET /ready status = %d", w.Code)
	}
}

func TestRefreshTokenFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ana@example.com")

	w := env.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "senha-segura-123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}

	var refreshCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			refreshCookie = c
		}
	}
	if refreshCookie == nil {
		t.Fatal("refresh_token cookie not set on login")
	}
	if !refreshCookie.HttpOnly {
		t.Error("refresh_token cookie must be http-only")
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(refreshCookie)
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "access_token") {
		t.Errorf("refresh body = %s", rec.Body.String())
	}

	// 没有 Cookie 时 401
	if w := env.do(t, http.MethodPost, "/v1/auth/refresh", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("refresh without cookie status = %d, want 401", w.Code)
	}
}
