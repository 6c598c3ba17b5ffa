package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/card-images/auth"
	"github.com/krishkalaria12/card-images/config"
	"github.com/krishkalaria12/card-images/database"
	handler "github.com/krishkalaria12/card-images/handlers"
	"github.com/krishkalaria12/card-images/images"
	"github.com/krishkalaria12/card-images/models"
	"github.com/krishkalaria12/card-images/router"
	"gorm.io/gorm/logger"
)

const testSignKey = "handler-test-key"

type fakeGateway struct {
	next      int
	uploadErr error
	deleteErr error
	deleted   []string
}

func (g *fakeGateway) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if g.uploadErr != nil {
		return "", g.uploadErr
	}
	g.next++
	return "https://host.example/" + strings.Repeat("i", g.next) + "-" + filename, nil
}

func (g *fakeGateway) Delete(ctx context.Context, imageURL string) error {
	g.deleted = append(g.deleted, imageURL)
	return g.deleteErr
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type testEnv struct {
	app     *fiber.App
	gateway *fakeGateway
	token   string
}

func newTestEnv(t *testing.T, dbPing, providerPing handler.Pinger) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "handler.db"), logger.Silent)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	idx := database.NewImageIndex(db)
	gw := &fakeGateway{}
	if dbPing == nil {
		dbPing = idx
	}
	if providerPing == nil {
		providerPing = fakePinger{}
	}

	app, err := router.New(router.Options{
		Images:            handler.NewImageHandler(images.NewService(idx, gw)),
		Health:            handler.NewHealthHandler(dbPing, providerPing),
		Verifier:          auth.NewVerifier(testSignKey),
		CORSOriginPattern: config.DefaultCORSOriginPattern,
		BodyLimit:         1 << 20,
	})
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte(testSignKey))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return &testEnv{app: app, gateway: gw, token: tok}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	if e.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) upload(t *testing.T, path, filename string, content []byte) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(t, req)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, raw)
	}
}

func TestImages_RequireBearerToken(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	for _, authz := range []string{"", "Bearer nope", "Basic dXNlcjpwYXNz"} {
		req := httptest.NewRequest(http.MethodGet, "/card-images", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		resp, err := env.app.Test(req, -1)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("authorization %q: expected 401, got %d", authz, resp.StatusCode)
		}
		if resp.Header.Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("authorization %q: expected WWW-Authenticate: Bearer, got %q", authz, resp.Header.Get("WWW-Authenticate"))
		}
	}
}

func TestImages_UploadGetListDelete(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/card-images", nil))
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]models.CardImageResponse](t, resp); len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}

	resp = env.upload(t, "/card-images?card_id=5", "a.png", []byte("png-a"))
	expectStatus(t, resp, http.StatusOK)
	if got := decode[models.NewImageID](t, resp); got.ID != 0 {
		t.Fatalf("expected id 0, got %d", got.ID)
	}

	resp = env.upload(t, "/v1/card-images?card_id=6", "b.png", []byte("png-b"))
	expectStatus(t, resp, http.StatusOK)
	if got := decode[models.NewImageID](t, resp); got.ID != 1 {
		t.Fatalf("expected id 1, got %d", got.ID)
	}

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/card-images/0", nil))
	expectStatus(t, resp, http.StatusTemporaryRedirect)
	if loc := resp.Header.Get("Location"); loc != "https://host.example/i-a.png" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/card-images?card_id=6", nil))
	expectStatus(t, resp, http.StatusOK)
	list := decode[[]models.CardImageResponse](t, resp)
	want := models.CardImageResponse{ID: 1, CardID: 6, URL: "https://host.example/ii-b.png"}
	if len(list) != 1 || list[0] != want {
		t.Fatalf("expected [%+v], got %+v", want, list)
	}

	resp = env.do(t, httptest.NewRequest(http.MethodDelete, "/card-images/0", nil))
	expectStatus(t, resp, http.StatusOK)
	if len(env.gateway.deleted) != 1 || env.gateway.deleted[0] != "https://host.example/i-a.png" {
		t.Fatalf("expected remote delete of image 0, got %v", env.gateway.deleted)
	}

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/card-images/0", nil))
	expectStatus(t, resp, http.StatusNotFound)
	body := decode[map[string]any](t, resp)
	if body["message"] != "Image with given ID not found" || body["status"] != "error" {
		t.Fatalf("unexpected error body %+v", body)
	}

	resp = env.do(t, httptest.NewRequest(http.MethodDelete, "/v1/card-images/0", nil))
	expectStatus(t, resp, http.StatusNotFound)
}

func TestImages_Any(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/card-images/any", nil))
	expectStatus(t, resp, http.StatusNotFound)
	if body := decode[map[string]any](t, resp); body["message"] != "No suitable image found" {
		t.Fatalf("unexpected error body %+v", body)
	}

	expectStatus(t, env.upload(t, "/card-images?card_id=3", "c.png", []byte("png")), http.StatusOK)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/card-images/any?card_id=3", nil))
	expectStatus(t, resp, http.StatusTemporaryRedirect)
	if loc := resp.Header.Get("Location"); loc != "https://host.example/i-c.png" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/card-images/any?card_id=4", nil))
	expectStatus(t, resp, http.StatusNotFound)
}

func TestImages_UploadFailureReturns500AndIndexesNothing(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.gateway.uploadErr = models.ErrUploadFailed

	resp := env.upload(t, "/card-images?card_id=5", "a.png", []byte("png"))
	expectStatus(t, resp, http.StatusInternalServerError)
	if body := decode[map[string]any](t, resp); body["message"] != "Couldn't upload image" {
		t.Fatalf("unexpected error body %+v", body)
	}

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/card-images", nil))
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]models.CardImageResponse](t, resp); len(list) != 0 {
		t.Fatalf("expected no records, got %+v", list)
	}
}

func TestImages_DeleteSucceedsWhenRemoteDeleteFails(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.gateway.deleteErr = errors.New("provider timeout")

	expectStatus(t, env.upload(t, "/card-images?card_id=5", "a.png", []byte("png")), http.StatusOK)

	resp := env.do(t, httptest.NewRequest(http.MethodDelete, "/card-images/0", nil))
	expectStatus(t, resp, http.StatusOK)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/card-images/0", nil))
	expectStatus(t, resp, http.StatusNotFound)
}

func TestImages_BadRequests(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name string
		req  func() *http.Response
	}{
		{"non-numeric id", func() *http.Response {
			return env.do(t, httptest.NewRequest(http.MethodGet, "/card-images/abc", nil))
		}},
		{"non-numeric card filter", func() *http.Response {
			return env.do(t, httptest.NewRequest(http.MethodGet, "/card-images?card_id=x", nil))
		}},
		{"upload without card", func() *http.Response {
			return env.upload(t, "/card-images", "a.png", []byte("png"))
		}},
		{"upload without file", func() *http.Response {
			return env.do(t, httptest.NewRequest(http.MethodPost, "/card-images?card_id=1", nil))
		}},
		{"upload empty file", func() *http.Response {
			return env.upload(t, "/card-images?card_id=1", "a.png", nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, tt.req(), http.StatusBadRequest)
		})
	}
}

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := env.do(t, req)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected localhost origin to be allowed, got %q", got)
	}
	if resp.Header.Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("expected credentials to be allowed")
	}

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp = env.do(t, req)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected foreign origin to be refused, got %q", got)
	}
}
