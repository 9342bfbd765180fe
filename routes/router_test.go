package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/config"
	"github.com/cppla/rsvblog/events"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/services"
	"github.com/cppla/rsvblog/storage"
	"github.com/cppla/rsvblog/testutil"
	"github.com/cppla/rsvblog/utils"
)

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func (e envelope) item() map[string]interface{} {
	m, _ := e.Data["item"].(map[string]interface{})
	return m
}

func (e envelope) items() []interface{} {
	l, _ := e.Data["items"].([]interface{})
	return l
}

type testAPI struct {
	t  *testing.T
	r  *gin.Engine
	db *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	utils.UseRedis(nil)
	cfg := config.AppConfig{
		App: config.AppSection{
			JWTSecret:          "router-secret",
			TokenTTLHours:      1,
			RateLimitPerMinute: 100000,
			AllowedOrigins:     []string{"*"},
			GinMode:            "test",
		},
		Storage: config.StorageSection{
			Driver:      "local",
			Root:        t.TempDir(),
			TempDir:     t.TempDir(),
			MaxUploadMB: 1,
		},
	}
	config.Set(cfg)
	db := testutil.NewDB(t)
	r := SetupRouter(cfg, Deps{
		DB:        db,
		Store:     storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.BaseURL),
		Publisher: events.NewLogPublisher(nil),
	})
	return &testAPI{t: t, r: r, db: db}
}

func (a *testAPI) send(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (a *testAPI) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return a.send(req, token)
}

// join registers username and returns its token.
func (a *testAPI) join(username string) string {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/members/join", "", gin.H{"username": username, "password": "pass1234", "nickname": username})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return env.Data["token"].(string)
}

// admin seeds the privileged accounts and logs in as username.
func (a *testAPI) admin(username string) string {
	a.t.Helper()
	require.NoError(a.t, repository.Transaction(context.Background(), a.db, func(uow *repository.UnitOfWork) error {
		_, err := services.NewMemberService().EnsureAdmins(uow, "admin-pass")
		return err
	}))
	w, env := a.do(http.MethodPost, "/api/v1/members/login", "", gin.H{"username": username, "password": "admin-pass"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return env.Data["token"].(string)
}

func (a *testAPI) writePost(token, title string, published bool) uint {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/posts", token, gin.H{"title": title, "body": "body of " + title, "published": published})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return uint(env.item()["id"].(float64))
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w, env := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", env.Data["status"])

	w, _ = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rsvblog_http_requests_total")

	w, env = api.do(http.MethodGet, "/api/v1/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)
}

func TestMemberSession(t *testing.T) {
	api := newTestAPI(t)
	token := api.join("alice")

	w, env := api.do(http.MethodGet, "/api/v1/members/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", env.item()["username"])
	assert.Equal(t, false, env.item()["isAdmin"])

	w, env = api.do(http.MethodPost, "/api/v1/members/join", "", gin.H{"username": "alice", "password": "other123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, env.Code)

	w, env = api.do(http.MethodPost, "/api/v1/members/join", "", gin.H{"username": "admin", "password": "takeover"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40004, env.Code)

	w, env = api.do(http.MethodPost, "/api/v1/members/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, env.Code)

	w, env = api.do(http.MethodPost, "/api/v1/members/login", "", gin.H{"username": "alice", "password": "pass1234"})
	require.Equal(t, http.StatusOK, w.Code)
	second := env.Data["token"].(string)

	w, _ = api.do(http.MethodPost, "/api/v1/members/logout", second, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodGet, "/api/v1/members/me", second, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(http.MethodGet, "/api/v1/members/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostReadEditDeleteRules(t *testing.T) {
	api := newTestAPI(t)
	alice := api.join("alice")
	bob := api.join("bob")
	admin := api.admin("admin")

	public := api.writePost(alice, "public", true)
	draft := api.writePost(alice, "secret", false)

	w, env := api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", public), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body of public", env.item()["body"])
	assert.Equal(t, false, env.item()["actorCanEdit"])

	for _, token := range []string{"", bob} {
		w, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", draft), token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 40301, env.Code)
	}
	w, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", draft), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, env.item()["actorCanEdit"])
	assert.Equal(t, true, env.item()["actorCanDelete"])

	w, _ = api.do(http.MethodGet, "/api/v1/posts/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	edit := gin.H{"title": "changed", "body": "new body", "published": true}
	w, _ = api.do(http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", public), admin, edit)
	assert.Equal(t, http.StatusForbidden, w.Code, "admins may not edit")
	w, _ = api.do(http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", public), bob, edit)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env = api.do(http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", public), alice, gin.H{"title": " ", "body": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40001, env.Code)
	w, env = api.do(http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", public), alice, edit)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "changed", env.item()["title"])
	assert.Equal(t, "new body", env.item()["body"])

	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", public), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", public), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fmt.Sprintf("post #%d deleted", public), env.Message)
	w, _ = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", public), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = api.do(http.MethodPost, "/api/v1/posts", "", gin.H{"title": "t", "body": "b"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostListsAndDrafts(t *testing.T) {
	api := newTestAPI(t)
	alice := api.join("alice")
	api.writePost(alice, "go generics", true)
	api.writePost(alice, "rust", true)
	api.writePost(alice, "hidden go", false)

	_, env := api.do(http.MethodGet, "/api/v1/posts", "", nil)
	assert.Len(t, env.items(), 2)
	pg := env.Data["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pg["total"])

	_, env = api.do(http.MethodGet, "/api/v1/posts?kw=go&kwType=title", "", nil)
	assert.Len(t, env.items(), 1)

	_, env = api.do(http.MethodGet, "/api/v1/posts/mine", alice, nil)
	assert.Len(t, env.items(), 3)

	w, env := api.do(http.MethodPost, "/api/v1/posts/temp", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "draft created", env.Message)
	id := env.item()["id"].(float64)
	assert.Equal(t, "임시글", env.item()["title"])

	_, env = api.do(http.MethodPost, "/api/v1/posts/temp", alice, nil)
	assert.Equal(t, fmt.Sprintf("draft #%d loaded", int(id)), env.Message)
}

func TestLikes(t *testing.T) {
	api := newTestAPI(t)
	alice := api.join("alice")
	bob := api.join("bob")
	post := api.writePost(alice, "likeable", true)
	likePath := fmt.Sprintf("/api/v1/posts/%d/like", post)

	w, env := api.do(http.MethodPost, likePath, bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, env.item()["actorCanCancelLike"])

	w, _ = api.do(http.MethodPost, likePath, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/likes", post), "", nil)
	assert.EqualValues(t, 1, env.item()["count"])

	_, env = api.do(http.MethodGet, "/api/v1/posts", bob, nil)
	require.Len(t, env.items(), 1)
	first := env.items()[0].(map[string]interface{})
	assert.Equal(t, true, first["actorCanCancelLike"])
	assert.Equal(t, false, first["actorCanLike"])

	w, _ = api.do(http.MethodDelete, likePath, bob, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodDelete, likePath, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/likes", post), "", nil)
	assert.EqualValues(t, 0, env.item()["count"])
}

func TestComments(t *testing.T) {
	api := newTestAPI(t)
	alice := api.join("alice")
	bob := api.join("bob")
	admin := api.admin("system")
	post := api.writePost(alice, "discuss", true)
	base := fmt.Sprintf("/api/v1/posts/%d/comments", post)

	w, env := api.do(http.MethodPost, base, bob, gin.H{"body": "first!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parentID := env.item()["id"].(float64)

	w, _ = api.do(http.MethodPost, base, bob, gin.H{"body": "reply", "parentId": parentID})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = api.do(http.MethodPost, base, bob, gin.H{"body": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, env = api.do(http.MethodGet, base, "", nil)
	assert.Len(t, env.items(), 1)
	_, env = api.do(http.MethodGet, fmt.Sprintf("%s?parentId=%d", base, int(parentID)), "", nil)
	assert.Len(t, env.items(), 1)

	_, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post), "", nil)
	assert.EqualValues(t, 2, env.item()["commentsCount"])

	w, env = api.do(http.MethodPost, base+"/temp", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "comment draft created", env.Message)
	draftID := env.item()["id"].(float64)

	w, _ = api.do(http.MethodPut, fmt.Sprintf("%s/%d", base, int(draftID)), bob, gin.H{"body": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = api.do(http.MethodPut, fmt.Sprintf("%s/%d", base, int(draftID)), admin, gin.H{"body": "admin edit"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env = api.do(http.MethodPut, fmt.Sprintf("%s/%d", base, int(draftID)), alice, gin.H{"body": "published now"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, env.item()["published"])

	_, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post), "", nil)
	assert.EqualValues(t, 3, env.item()["commentsCount"])

	w, _ = api.do(http.MethodDelete, fmt.Sprintf("%s/%d", base, int(parentID)), alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = api.do(http.MethodDelete, fmt.Sprintf("%s/%d", base, int(parentID)), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, env = api.do(http.MethodGet, base, "", nil)
	assert.Len(t, env.items(), 2, "the orphaned reply is top level now")

	other := api.writePost(alice, "other", true)
	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/comments/%d", other, int(draftID)), alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func uploadRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("typeCode", "common"))
	require.NoError(t, mw.WriteField("type2Code", "attachment"))
	require.NoError(t, mw.WriteField("fileNo", "1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestGenFiles(t *testing.T) {
	api := newTestAPI(t)
	alice := api.join("alice")
	bob := api.join("bob")
	post := api.writePost(alice, "with files", true)
	path := fmt.Sprintf("/api/v1/gen-files/post/%d", post)

	w, _ := api.send(uploadRequest(t, path, "cat.png", []byte("meow")), bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := api.send(uploadRequest(t, path, "cat.png", []byte("meow")), alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := env.item()
	assert.Equal(t, "img", item["fileExtTypeCode"])
	assert.Equal(t, "cat.png", item["originFileName"])
	assert.EqualValues(t, 4, item["fileSize"])
	fileName := item["fileName"].(string)
	assert.Equal(t, "/api/v1/gen-files/download/"+fileName, item["url"])

	_, env = api.do(http.MethodGet, path, "", nil)
	assert.Len(t, env.items(), 1)

	w, _ = api.do(http.MethodGet, "/api/v1/gen-files/download/"+fileName, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "meow", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "cat.png")

	w, _ = api.do(http.MethodGet, "/api/v1/gen-files/download/nope.png", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	draft := api.writePost(alice, "hidden", false)
	w, env = api.send(uploadRequest(t, fmt.Sprintf("/api/v1/gen-files/post/%d", draft), "plan.pdf", []byte("secret")), alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	hidden := "/api/v1/gen-files/download/" + env.item()["fileName"].(string)
	for _, token := range []string{"", bob} {
		w, _ = api.do(http.MethodGet, hidden, token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}
	w, _ = api.do(http.MethodGet, hidden, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "secret", w.Body.String())

	w, _ = api.do(http.MethodGet, "/gen/post/"+fileName, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "storage root is not served")

	w, env = api.send(uploadRequest(t, "/api/v1/gen-files/board/1", "a.txt", []byte("x")), alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.send(uploadRequest(t, path, "big.bin", bytes.Repeat([]byte("a"), 2<<20)), alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
