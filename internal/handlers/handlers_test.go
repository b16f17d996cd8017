package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"photo-social-backend/internal/models"
	"photo-social-backend/internal/repository"
	"photo-social-backend/internal/services"
	"photo-social-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopBlobs struct{}

func (nopBlobs) Delete(_ context.Context, url string) storage.Outcome {
	return storage.Outcome{URL: url, Deleted: url != ""}
}

type memUploader struct{}

func (memUploader) PutObject(_ context.Context, key, _ string, _ []byte) (string, error) {
	return "https://media.example.com/" + key, nil
}

type testServer struct {
	handler http.Handler
	store   *repository.MemoryStore
	users   *services.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	batches := services.NewBatchDeleter(store, 0, 0, 0)
	users := services.NewUserService(repository.NewUserRepository(store), nil, "test-secret")
	invites := services.NewInviteService(memUploader{}, "")
	links := services.NewShortLinkService(repository.NewShortLinkRepository(store), invites, services.LinkOptions{
		BaseURL: "https://go.example.app",
	})
	accounts := services.NewAccountService(services.AccountDeps{Store: store, Blobs: nopBlobs{}, Batches: batches}, 2)
	cleanup := services.NewCleanupService(store, nopBlobs{}, batches)

	h := NewRouter(Router{
		Auth:      users,
		Users:     NewUserHandler(users),
		Accounts:  NewAccountHandler(accounts, cleanup, time.Minute),
		Links:     NewLinkHandler(links, invites),
		WebSocket: NewWebSocketHandler(services.NewWSHub(), users),
	})
	return &testServer{handler: h, store: store, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createUser(t *testing.T, name string) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/users", "", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.User.ID, resp.Token
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsers(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users", "", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/users", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	userID, token := s.createUser(t, "Mina")

	rec = s.do(t, http.MethodGet, "/api/v1/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "Mina", me.Name)

	rec = s.do(t, http.MethodGet, "/api/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	rec := s.do(t, http.MethodPost, "/api/v1/account/delete", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userID, token := s.createUser(t, "Mina")
	content := repository.NewContentRepository(s.store)
	require.NoError(t, content.CreateNotification(ctx, &models.Notification{RecipientUserID: userID, ActorUserID: "other"}))

	rec = s.do(t, http.MethodPost, "/api/v1/account/delete", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	_, err := s.store.Get(ctx, repository.UserPath(userID))
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 0, s.store.Len())

	rec = s.do(t, http.MethodGet, "/api/v1/users/me", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAccountWithoutCaller(t *testing.T) {
	s := newTestServer(t)
	accounts := services.NewAccountService(services.AccountDeps{Store: s.store, Blobs: nopBlobs{}}, 1)
	h := NewAccountHandler(accounts, nil, 0)

	rec := httptest.NewRecorder()
	h.DeleteAccount(rec, httptest.NewRequest(http.MethodPost, "/api/v1/account/delete", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCleanupDeletedPhotos(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, token := s.createUser(t, "Admin")

	deletedAt := time.Now().UTC().AddDate(0, 0, -45)
	photos := repository.NewPhotoRepository(s.store)
	require.NoError(t, photos.Create(ctx, &models.Photo{
		ID: "p1", CategoryID: "c1", UserID: "u", ImageURL: "img://p1",
		Status: models.PhotoStatusDeleted, DeletedAt: &deletedAt,
	}))
	require.NoError(t, photos.Create(ctx, &models.Photo{ID: "p2", CategoryID: "c1", UserID: "u", ImageURL: "img://p2"}))

	rec := s.do(t, http.MethodPost, "/api/v1/admin/cleanup-deleted-photos", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"deletedCount":1,"errorCount":0}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/admin/cleanup-deleted-photos", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestShortLinks(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, token := s.createUser(t, "Mina")

	rec := s.do(t, http.MethodPost, "/api/v1/links", token, `{"long_url":"notaurl"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/links", token, `{"long_url":"https://example.com/x","generate_image":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created services.CreatedLink
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.CustomImageURL, "https://media.example.com/invite_previews/"))

	rec = s.do(t, http.MethodGet, "/links/"+created.ShortCode, "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/x", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/links/missing1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.store.Update(ctx, repository.DocPath(models.ShortLinksCollection, created.ShortCode),
		map[string]any{models.FieldIsActive: false}))
	rec = s.do(t, http.MethodGet, "/links/"+created.ShortCode, "", "")
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestInvitePage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/invites/u1?social_title=Hello&lang=en", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="en">`)
	assert.Contains(t, body, `<meta property="og:title" content="Hello">`)
	assert.Contains(t, body, `<meta property="og:url" content="https://go.example.app/invites/u1">`)
}

func TestCreateInviteImage(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "Mina")

	rec := s.do(t, http.MethodPost, "/api/v1/invite-images", token, `{"display_name":"Mina"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Contains(t, resp["image_url"], "invite_previews/")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodOptions, "/api/v1/links", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
