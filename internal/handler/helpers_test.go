package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artgallery/internal/db"
	"github.com/artgallery/internal/service"
	"github.com/artgallery/internal/storage"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse"
)

type testEnv struct {
	api       *API
	router    *gin.Engine
	db        *gorm.DB
	uploadDir string
	tempDir   string
	token     string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir, "/uploads")
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	ordering := service.NewOrderingService(gdb)
	tempDir := t.TempDir()
	api := NewAPI(Options{
		Drawings: service.NewDrawingService(gdb, ordering, store, nil),
		Uploads:  service.NewUploadService(gdb, ordering, store, nil, time.Hour),
		Auth: service.NewAuthService(service.AuthConfig{
			AdminEmails:  []string{testAdminEmail},
			PasswordHash: string(hash),
			Secret:       []byte("handler-test-secret"),
			TokenTTL:     time.Hour,
		}),
		TempDir:        tempDir,
		MaxUploadBytes: 1 << 20,
	})

	env := &testEnv{
		api:       api,
		router:    newTestRouter(api),
		db:        gdb,
		uploadDir: uploadDir,
		tempDir:   tempDir,
	}
	env.token = env.login(t)
	return env
}

func newTestRouter(api *API) *gin.Engine {
	r := gin.New()
	group := r.Group("/api")
	group.POST("/login", api.Login)
	group.GET("/drawings/:gallery", api.ListDrawings)
	group.GET("/drawing/:id", api.GetDrawing)

	auth := group.Group("")
	auth.Use(api.AuthRequired())
	auth.PUT("/drawing/:id", api.UpdateDrawing)
	auth.DELETE("/drawing/:id", api.DeleteDrawing)
	auth.POST("/drawings/reorder", api.ReorderDrawings)
	auth.POST("/upload", api.UploadDrawing)
	auth.GET("/sign-upload", api.SignUpload)
	return r
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": testAdminEmail, "password": testAdminPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := e.do(req)
	if w.Code != http.StatusCreated {
		t.Fatalf("login failed with status %d: %s", w.Code, w.Body.String())
	}

	var resp service.LoginResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.Token
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) authorized(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+e.token)
	return req
}

// upload 通过 /api/upload 上传一张 PNG 并返回作品
func (e *testEnv) upload(t *testing.T, filename string, data map[string]any) service.DrawingView {
	t.Helper()

	w := e.do(e.authorized(multipartRequest(t, http.MethodPost, "/api/upload", "data", data, filename)))
	if w.Code != http.StatusOK {
		t.Fatalf("upload failed with status %d: %s", w.Code, w.Body.String())
	}
	var view service.DrawingView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	return view
}

func (e *testEnv) listGallery(t *testing.T, gallery string) []service.DrawingView {
	t.Helper()

	w := e.do(httptest.NewRequest(http.MethodGet, "/api/drawings/"+gallery, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list %s failed with status %d: %s", gallery, w.Code, w.Body.String())
	}
	var resp map[string][]service.DrawingView
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	items, ok := resp[gallery]
	if !ok {
		t.Fatalf("expected key %q in listing, got %s", gallery, w.Body.String())
	}
	return items
}

// multipartRequest 构造 multipart 请求，filename 为空时不附带文件
func multipartRequest(t *testing.T, method, target, field string, payload any, filename string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode payload: %v", err)
	}
	if err := writer.WriteField(field, string(encoded)); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}

	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(pngBytes(t)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, filepath.Join(dir, entry.Name()))
		}
		t.Fatalf("expected temp dir to be empty, found %v", names)
	}
}
