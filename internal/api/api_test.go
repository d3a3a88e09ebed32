package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"skillswipe/internal/auth"
	"skillswipe/internal/config"
	"skillswipe/internal/database"
	"skillswipe/internal/testutil"
)

const testInternalSecret = "test-secret"

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{Key: objectName}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

type fakeScanner struct {
	err error
}

func (s *fakeScanner) Scan(r io.Reader) error {
	_, _ = io.Copy(io.Discard, r)
	return s.err
}

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	auth    *auth.AuthService
	router  *gin.Engine
	storage *fakeStorage
	scanner *fakeScanner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		API: config.APIConfig{
			InternalSecret:          testInternalSecret,
			SwipeRateLimitPerMinute: 100,
			MaxUploadBytes:          1 << 20,
		},
		Auth: config.AuthConfig{
			LoginRateLimitPerHour: 100,
			LoginLockThreshold:    5,
			LoginLockTTL:          time.Minute,
		},
	}
	// 不可达的 Redis：登录限流与锁定在 Redis 不可用时放行。
	redisClient := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = redisClient.Close() })

	s := &testServer{
		t:       t,
		db:      testutil.NewDB(t),
		auth:    testutil.NewAuthService(t),
		storage: newFakeStorage(),
		scanner: &fakeScanner{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(cfg, logger)
	RegisterRoutes(s.router, Dependencies{
		Config:      cfg,
		DB:          s.db,
		AuthService: s.auth,
		Redis:       redisClient,
		Storage:     s.storage,
		Scanner:     s.scanner,
		Logger:      logger,
	})
	return s
}

func (s *testServer) token(user database.User) string {
	s.t.Helper()
	pair, err := s.auth.GenerateTokenPair(user)
	require.NoError(s.t, err)
	return pair.AccessToken
}

func (s *testServer) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(req, token)
}

func (s *testServer) upload(path, token, filename string, content []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(s.t, err)
	_, err = part.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.serve(req, token)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func hasPrefix(s any, prefix string) bool {
	str, ok := s.(string)
	return ok && strings.HasPrefix(str, prefix)
}
