package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/farellandr/eventshots/config"
	"github.com/farellandr/eventshots/internal/objectstore"
	"github.com/farellandr/eventshots/internal/store"
	"github.com/gin-gonic/gin"
)

var pngBytes, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

type testServer struct {
	router  *gin.Engine
	dataDir string
}

func newTestServer(t *testing.T, tweaks ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	dir := t.TempDir()
	objects, err := objectstore.NewLocal(dir, "photos", "http://test.local/media")
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		ObjectStore:   "local",
		Bucket:        "photos",
		StorageDir:    dir,
		PublicBaseURL: "http://test.local/media",
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
		UploadMaxMB:   1,
		IngestWorkers: 2,
		BatchMaxItems: 50,
		CORSOrigins:   []string{"*"},
	}
	for _, tweak := range tweaks {
		tweak(cfg)
	}
	return &testServer{router: NewRouter(newServices(st, objects, cfg), cfg), dataDir: dir}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) json(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(t, req)
}

type formFile struct {
	name, filename string
	data           []byte
}

func (s *testServer) multipart(t *testing.T, target string, fields map[string][]string, files ...formFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.name, f.filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	w := s.json(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": "secret123"})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: got %d %s", w.Code, w.Body.String())
	}
	return decode[struct {
		Token string `json:"token"`
	}](t, w).Token
}

func (s *testServer) createEvent(t *testing.T, token, name, code string) string {
	t.Helper()
	w := s.json(t, http.MethodPost, "/events", token, map[string]any{"name": name, "code": code})
	if w.Code != http.StatusCreated {
		t.Fatalf("create event: got %d %s", w.Code, w.Body.String())
	}
	return decode[struct {
		ID string `json:"id"`
	}](t, w).ID
}

type photoJSON struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	ImageURL    string `json:"image_url"`
	SourceType  string `json:"source_type"`
	StoragePath string `json:"storage_path"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
}

func TestCreateEventRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "host@example.com")

	tests := []struct {
		name   string
		token  string
		body   map[string]any
		status int
	}{
		{"anonymous", "", map[string]any{"name": "Gala", "code": "gala"}, http.StatusUnauthorized},
		{"bad token", "not-a-jwt", map[string]any{"name": "Gala", "code": "gala"}, http.StatusUnauthorized},
		{"missing code", token, map[string]any{"name": "Gala"}, http.StatusBadRequest},
		{"blank name", token, map[string]any{"name": "  ", "code": "gala"}, http.StatusBadRequest},
		{"created", token, map[string]any{"name": "Gala", "code": "gala"}, http.StatusCreated},
		{"duplicate", token, map[string]any{"name": "Other", "code": "GALA"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.json(t, http.MethodPost, "/events", tt.token, tt.body)
			if w.Code != tt.status {
				t.Fatalf("got %d %s, want %d", w.Code, w.Body.String(), tt.status)
			}
		})
	}

	w := s.json(t, http.MethodGet, "/events", "", nil)
	events := decode[[]struct {
		Code string `json:"code"`
	}](t, w)
	if len(events) != 1 || events[0].Code != "GALA" {
		t.Fatalf("unexpected events %+v", events)
	}

	w = s.json(t, http.MethodGet, "/events/code/gala", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup by code: got %d", w.Code)
	}
	w = s.json(t, http.MethodGet, "/events/code/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown code: got %d", w.Code)
	}
}

func TestVisibleEvents(t *testing.T) {
	s := newTestServer(t)
	host := s.signUp(t, "host@example.com")
	guest := s.signUp(t, "guest@example.com")

	w := s.json(t, http.MethodPost, "/events", host, map[string]any{
		"name": "Shared", "code": "shared", "allowedEmails": []string{"Guest@Example.com"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	s.createEvent(t, host, "Hidden", "hidden")

	count := func(token string) int {
		w := s.json(t, http.MethodGet, "/events/visible", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("got %d", w.Code)
		}
		return len(decode[[]map[string]any](t, w))
	}
	if n := count(host); n != 2 {
		t.Fatalf("host sees %d events, want 2", n)
	}
	if n := count(guest); n != 1 {
		t.Fatalf("guest sees %d events, want 1", n)
	}
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)

	w := s.json(t, http.MethodGet, "/auth/me", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"user":null`) {
		t.Fatalf("anonymous profile: %d %s", w.Code, w.Body.String())
	}

	token := s.signUp(t, "me@example.com")
	w = s.json(t, http.MethodGet, "/auth/me", token, nil)
	if !strings.Contains(w.Body.String(), "me@example.com") {
		t.Fatalf("profile: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("profile leaks password: %s", w.Body.String())
	}
}

func TestListPhotosRequiresEvent(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/photos", "/photos?eventId=not-a-uuid"} {
		w := s.json(t, http.MethodGet, target, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d", target, w.Code)
		}
	}
}

func TestUploadListDeletePhoto(t *testing.T) {
	s := newTestServer(t)
	eventID := s.createEvent(t, s.signUp(t, "host@example.com"), "Gala", "gala")

	w := s.multipart(t, "/photos", map[string][]string{"eventId": {eventID}}, formFile{"file", "My Pic.png", pngBytes})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: got %d %s", w.Code, w.Body.String())
	}
	photo := decode[photoJSON](t, w)
	if photo.SourceType != "upload" || photo.EventID != eventID {
		t.Fatalf("unexpected photo %+v", photo)
	}
	if !strings.HasPrefix(photo.StoragePath, eventID+"/") || !strings.HasSuffix(photo.StoragePath, "_My_Pic.png") {
		t.Fatalf("unexpected storage path %q", photo.StoragePath)
	}
	stored := filepath.Join(s.dataDir, "photos", filepath.FromSlash(photo.StoragePath))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("object not written: %v", err)
	}

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/media/photos/"+photo.StoragePath, nil))
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), pngBytes) {
		t.Fatalf("media: got %d", w.Code)
	}

	w = s.json(t, http.MethodGet, "/photos?eventId="+eventID, "", nil)
	if photos := decode[[]photoJSON](t, w); len(photos) != 1 || photos[0].ID != photo.ID {
		t.Fatalf("unexpected list %+v", photos)
	}

	w = s.json(t, http.MethodDelete, "/photos?id="+photo.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: got %d %s", w.Code, w.Body.String())
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Fatalf("object still present: %v", err)
	}

	w = s.json(t, http.MethodDelete, "/photos?id="+photo.ID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d", w.Code)
	}
	w = s.json(t, http.MethodDelete, "/photos", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete without id: got %d", w.Code)
	}
}

func TestCreatePhotoRejections(t *testing.T) {
	s := newTestServer(t)
	eventID := s.createEvent(t, s.signUp(t, "host@example.com"), "Gala", "gala")

	tests := []struct {
		name   string
		fields map[string][]string
		files  []formFile
		status int
	}{
		{"missing event", map[string][]string{"url": {"https://example.com/a.jpg"}}, nil, http.StatusBadRequest},
		{"unknown event", map[string][]string{"eventId": {"7f1c2f7e-8e4e-4a8e-9d33-3f7e2f0f1a11"}, "url": {"https://example.com/a.jpg"}}, nil, http.StatusBadRequest},
		{"bad source type", map[string][]string{"eventId": {eventID}, "sourceType": {"ftp"}}, nil, http.StatusBadRequest},
		{"upload without file", map[string][]string{"eventId": {eventID}, "sourceType": {"upload"}}, nil, http.StatusBadRequest},
		{"not an image", map[string][]string{"eventId": {eventID}}, []formFile{{"file", "notes.txt", []byte("plain text")}}, http.StatusBadRequest},
		{"bad url", map[string][]string{"eventId": {eventID}, "url": {"not a url"}}, nil, http.StatusBadRequest},
		{"url", map[string][]string{"eventId": {eventID}, "url": {"https://example.com/a.jpg"}}, nil, http.StatusCreated},
		{"drive folder", map[string][]string{"eventId": {eventID}, "sourceType": {"drive_folder"}, "url": {"https://drive.google.com/drive/folders/abc"}}, nil, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.multipart(t, "/photos", tt.fields, tt.files...)
			if w.Code != tt.status {
				t.Fatalf("got %d %s, want %d", w.Code, w.Body.String(), tt.status)
			}
		})
	}
}

func TestBatchPartialFailure(t *testing.T) {
	s := newTestServer(t)
	eventID := s.createEvent(t, s.signUp(t, "host@example.com"), "Gala", "gala")

	w := s.multipart(t, "/photos/batch",
		map[string][]string{
			"eventId": {eventID},
			"url":     {"https://example.com/a.jpg\nnot a url"},
		},
		formFile{"file", "one.png", pngBytes},
	)
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	result := decode[struct {
		Photos   []photoJSON `json:"photos"`
		Accepted int         `json:"accepted"`
		Failed   int         `json:"failed"`
	}](t, w)
	if result.Accepted != 2 || result.Failed != 1 || len(result.Photos) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	w = s.multipart(t, "/photos/batch", map[string][]string{
		"eventId": {eventID},
		"url":     {"https://example.com/b.jpg"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("clean batch: got %d %s", w.Code, w.Body.String())
	}

	w = s.multipart(t, "/photos/batch", map[string][]string{"eventId": {eventID}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty batch: got %d", w.Code)
	}
}

func TestBatchLimits(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.BatchMaxItems = 2 })
	eventID := s.createEvent(t, s.signUp(t, "host@example.com"), "Gala", "gala")

	w := s.multipart(t, "/photos/batch", map[string][]string{
		"eventId": {eventID},
		"url":     {"https://example.com/a.jpg\nhttps://example.com/b.jpg\nhttps://example.com/c.jpg"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("too many items: got %d %s", w.Code, w.Body.String())
	}

	// two items at 1MB each plus form slack is the most the body may carry
	big := make([]byte, 4<<20)
	copy(big, pngBytes)
	w = s.multipart(t, "/photos/batch", map[string][]string{"eventId": {eventID}}, formFile{"file", "huge.png", big})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversized body: got %d %s", w.Code, w.Body.String())
	}

	w = s.json(t, http.MethodGet, "/photos?eventId="+eventID, "", nil)
	if photos := decode[[]photoJSON](t, w); len(photos) != 0 {
		t.Fatalf("expect nothing stored, got %d photos", len(photos))
	}
}
