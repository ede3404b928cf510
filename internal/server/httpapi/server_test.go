package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T, limiter *RateLimiter) *apiClient {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost

	repos := repomanager.NewMemoryRepositoryManager(nil)
	users, err := services.NewUserService(dbx.NopTransactor{}, repos, cfg)
	require.NoError(t, err)
	tasks := services.NewTaskService(dbx.NopTransactor{}, repos)

	srv := NewServer(users, tasks, limiter, logging.Nop{})
	return &apiClient{t: t, handler: srv.Handler()}
}

func (a *apiClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authBody struct {
	User  map[string]any `json:"user"`
	Token string         `json:"token"`
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (a *apiClient) signup(email string) authBody {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/users", "", map[string]any{
		"name": "Ann", "email": email, "password": "s3cr3t12",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](a.t, rec)
}

func TestHealth(t *testing.T) {
	api := newAPI(t, nil)
	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignup(t *testing.T) {
	api := newAPI(t, nil)

	body := api.signup("a@b.com")
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "a@b.com", body.User["email"])
	for _, hidden := range []string{"password", "passwordHash", "PasswordHash", "tokens", "Tokens", "avatar"} {
		assert.NotContains(t, body.User, hidden)
	}

	rec := api.do(http.MethodGet, "/users/me", body.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignup_Errors(t *testing.T) {
	api := newAPI(t, nil)
	api.signup("a@b.com")

	rec := api.do(http.MethodPost, "/users", "", map[string]any{
		"name": "Ann", "email": "a@b.com", "password": "mypassword1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	eb := decode[errorBody](t, rec)
	assert.Equal(t, "validation error", eb.Error)
	assert.Contains(t, eb.Fields, "password")

	rec = api.do(http.MethodPost, "/users", "", map[string]any{
		"name": "Bob", "email": "a@b.com", "password": "s3cr3t12",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/users", "", map[string]any{
		"name": "Cid", "email": "c@b.com", "password": "s3cr3t12", "age": 3000000000,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Fields, "age")

	rec = api.do(http.MethodPost, "/users", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	api := newAPI(t, nil)
	api.signup("a@b.com")

	rec := api.do(http.MethodPost, "/users/login", "", map[string]any{"email": "a@b.com", "password": "s3cr3t12"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[authBody](t, rec).Token)

	wrong := api.do(http.MethodPost, "/users/login", "", map[string]any{"email": "a@b.com", "password": "nope-nope"})
	unknown := api.do(http.MethodPost, "/users/login", "", map[string]any{"email": "x@b.com", "password": "s3cr3t12"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	api := newAPI(t, nil)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, h)
		assert.Equal(t, "please authenticate", decode[errorBody](t, rec).Error)
	}
}

func TestLogoutFlows(t *testing.T) {
	api := newAPI(t, nil)
	first := api.signup("a@b.com").Token

	rec := api.do(http.MethodPost, "/users/login", "", map[string]any{"email": "a@b.com", "password": "s3cr3t12"})
	second := decode[authBody](t, rec).Token

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/users/logout", first, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/users/me", first, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users/me", second, nil).Code)

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/users/logoutAll", second, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/users/me", second, nil).Code)
}

func TestUpdateAndDeleteMe(t *testing.T) {
	api := newAPI(t, nil)
	tok := api.signup("a@b.com").Token

	rec := api.do(http.MethodPatch, "/users/me", tok, map[string]any{"isAdmin": true})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid updates", decode[errorBody](t, rec).Error)

	rec = api.do(http.MethodPatch, "/users/me", tok, map[string]any{"name": "Annie", "age": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "Annie", me["name"])
	assert.Equal(t, float64(30), me["age"])

	rec = api.do(http.MethodPost, "/tasks", tok, map[string]any{"description": "x"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodDelete, "/users/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/users/me", tok, nil).Code)

	rec = api.do(http.MethodPost, "/users/login", "", map[string]any{"email": "a@b.com", "password": "s3cr3t12"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTasksAPI_OwnershipAndQueries(t *testing.T) {
	api := newAPI(t, nil)
	alice := api.signup("alice@b.com")
	bob := api.signup("bob@b.com")

	rec := api.do(http.MethodPost, "/tasks", alice.Token, map[string]any{
		"description": "write report", "owner": bob.User["id"],
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[map[string]any](t, rec)
	assert.Equal(t, alice.User["id"], task["owner"])
	id := task["id"].(string)

	for _, f := range []map[string]any{
		{"description": "alpha", "completed": true},
		{"description": "beta"},
	} {
		require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/tasks", alice.Token, f).Code)
	}

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/tasks/"+id, bob.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, "/tasks/"+id, bob.Token, map[string]any{"completed": true}).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/tasks/"+id, bob.Token, nil).Code)
	bobs := decode[[]map[string]any](t, api.do(http.MethodGet, "/tasks", bob.Token, nil))
	assert.Empty(t, bobs)

	rec = api.do(http.MethodPatch, "/tasks/"+id, alice.Token, map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPatch, "/tasks/"+id, alice.Token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["completed"])

	rec = api.do(http.MethodGet, "/tasks?completed=true&sortBy=description:desc", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "write report", list[0]["description"])
	assert.Equal(t, "alpha", list[1]["description"])

	rec = api.do(http.MethodGet, "/tasks?sortBy=description:asc&limit=1&skip=1", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "beta", list[0]["description"])

	for _, q := range []string{"completed=maybe", "sortBy=owner:asc", "limit=-1", "skip=abc"} {
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/tasks?"+q, alice.Token, nil).Code, q)
	}

	rec = api.do(http.MethodDelete, "/tasks/"+id, alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[map[string]any](t, rec)["id"])
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/tasks/"+id, alice.Token, nil).Code)
}

func avatarRequest(t *testing.T, token, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAvatarAPI(t *testing.T) {
	api := newAPI(t, nil)
	me := api.signup("a@b.com")
	id := me.User["id"].(string)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/users/"+id+"/avatar", "", nil).Code)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 32, 32))))

	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, avatarRequest(t, me.Token, "me.pdf", img.Bytes()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, avatarRequest(t, me.Token, "me.png", img.Bytes()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/users/"+id+"/avatar", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Width)

	require.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/users/me/avatar", me.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/users/"+id+"/avatar", "", nil).Code)
}

func TestRateLimit_SignupAndLogin(t *testing.T) {
	api := newAPI(t, NewRateLimiter(0.0001, 2))

	api.signup("a@b.com")
	rec := api.do(http.MethodPost, "/users/login", "", map[string]any{"email": "a@b.com", "password": "s3cr3t12"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/users/login", "", map[string]any{"email": "a@b.com", "password": "s3cr3t12"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil).Code, "other routes are not limited")
}

func TestRateLimit_IgnoresForwardedFor(t *testing.T) {
	api := newAPI(t, NewRateLimiter(0.0001, 1))
	api.signup("a@b.com")

	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/users/login",
			strings.NewReader(`{"email":"a@b.com","password":"s3cr3t12"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		req.RemoteAddr = "203.0.113.7:4242"

		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			passed++
		}
	}
	assert.Equal(t, 1, passed, "only the burst gets through from one peer")
}
