package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/skill-matcher/internal/models"
	"alfredoptarigan/skill-matcher/internal/repositories"
	"alfredoptarigan/skill-matcher/internal/services"
)

type fakeRecorder struct {
	mu      sync.Mutex
	records []models.Record
	stopped bool
}

func (f *fakeRecorder) Start(ctx context.Context) {}

func (f *fakeRecorder) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeRecorder) Record(rec models.Record) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return false
	}
	f.records = append(f.records, rec)
	return true
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, repositories.ErrNotFound)
}

type fakeMatchRepo struct {
	results map[uuid.UUID]*models.MatchResult
}

func (f *fakeMatchRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.MatchResult, error) {
	if r, ok := f.results[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("match result %s: %w", id, repositories.ErrNotFound)
}

type testEnv struct {
	app      *fiber.App
	recorder *fakeRecorder
	users    *fakeUserRepo
	matches  *fakeMatchRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pipeline := services.NewPipeline(
		services.PipelineConfig{Strategy: services.StrategyVocabulary, MinTextLength: 20},
		services.NewTextExtractor(),
		services.NewSkillExtractor(services.DefaultVocabulary(), services.StrategyVocabulary),
		nil,
		services.NewMatcher(nil, nil),
		nil,
		nil,
	)

	env := &testEnv{
		recorder: &fakeRecorder{},
		users:    newFakeUserRepo(),
		matches:  &fakeMatchRepo{results: make(map[uuid.UUID]*models.MatchResult)},
	}

	const maxSize = 1 << 20
	env.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Register(env.app.Group("/api/v1"), Handlers{
		Users:   NewUserHandler(env.users, nil),
		Resumes: NewResumeHandler(pipeline, env.recorder, env.users, maxSize, nil),
		Jobs:    NewJobHandler(pipeline, env.recorder, env.users, maxSize, nil),
		Matches: NewMatchHandler(pipeline, env.recorder, env.matches, env.users, maxSize, nil),
	})

	return env
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

func multipartRequest(t *testing.T, path string, values map[string]string, files ...formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (e *testEnv) do(t *testing.T, req *http.Request, out any) int {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// docxWithLines builds a minimal DOCX with one paragraph per line.
func docxWithLines(t *testing.T, lines ...string) []byte {
	t.Helper()

	var paras strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&paras, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, l)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		paras.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func resumeDOCX(t *testing.T) []byte {
	return docxWithLines(t,
		"Jane Doe",
		"jane.doe@example.com | +1 (555) 123-4567",
		"Skills: Python, Machine-Learning, SQL, Docker",
	)
}

const testJob = `We are hiring a backend engineer.
Requirements: Python, Docker, Kubernetes and SQL.`
