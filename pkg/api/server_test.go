package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/beeper/recipe-ingest/pkg/aiprovider"
	"github.com/beeper/recipe-ingest/pkg/assistant"
	"github.com/beeper/recipe-ingest/pkg/fetch"
	"github.com/beeper/recipe-ingest/pkg/ingest"
	"github.com/beeper/recipe-ingest/pkg/prompt"
	"github.com/beeper/recipe-ingest/pkg/recipe"
)

type fakeImporter struct {
	err       error
	enrichOK  bool
	gotURL    string
	gotAuthor string
	gotRecipe string
	gotVideo  string
}

func (f *fakeImporter) ImportFromURL(_ context.Context, rawURL, authorID string) (*recipe.Record, error) {
	f.gotURL, f.gotAuthor = rawURL, authorID
	if f.err != nil {
		return nil, f.err
	}
	return &recipe.Record{ID: "rec-1", AuthorID: authorID, Title: "Soup", Visibility: recipe.VisibilityPrivate}, nil
}

func (f *fakeImporter) EnrichFromVideo(_ context.Context, recipeID, videoURL string) bool {
	f.gotRecipe, f.gotVideo = recipeID, videoURL
	return f.enrichOK
}

type fakeAssistant struct {
	answer  string
	err     error
	history []prompt.Turn
}

func (f *fakeAssistant) Chat(_ context.Context, message string) (string, error) {
	return f.answer, f.err
}

func (f *fakeAssistant) Consult(_ context.Context, history []prompt.Turn) (string, error) {
	f.history = history
	return f.answer, f.err
}

func (f *fakeAssistant) FromIngredients(_ context.Context, ingredients []string) (*recipe.ExtractedRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &recipe.ExtractedRecord{Title: "Draft", Ingredients: []recipe.Ingredient{{Name: ingredients[0]}}}, nil
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-User-ID", "user-1")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return out
}

func newTestHandler(importer *fakeImporter, asst *fakeAssistant) http.Handler {
	return NewServer(importer, asst, TrustedHeaderAuth{}, zerolog.Nop()).Handler()
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestHandler(&fakeImporter{}, &fakeAssistant{}), http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestImportRequiresAuth(t *testing.T) {
	importer := &fakeImporter{}
	rec := doRequest(t, newTestHandler(importer, &fakeAssistant{}), http.MethodPost, "/api/v1/recipes/import", `{"url":"https://example.com"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if importer.gotURL != "" {
		t.Fatal("importer should not be called")
	}
}

func TestImportCreatesRecipe(t *testing.T) {
	importer := &fakeImporter{}
	rec := doRequest(t, newTestHandler(importer, &fakeAssistant{}), http.MethodPost, "/api/v1/recipes/import", `{"url":" https://example.com/soup "}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[recipe.Record](t, rec)
	if got.ID != "rec-1" || got.AuthorID != "user-1" || got.Visibility != recipe.VisibilityPrivate {
		t.Fatalf("unexpected record: %+v", got)
	}
	if importer.gotURL != "https://example.com/soup" || importer.gotAuthor != "user-1" {
		t.Fatalf("unexpected importer args: %q %q", importer.gotURL, importer.gotAuthor)
	}
}

func TestImportErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
		stage  string
	}{
		{"scrape", &ingest.StageError{Stage: ingest.StageGathering, Err: &fetch.Error{Kind: fetch.KindStatus, StatusCode: 404}}, http.StatusBadRequest, "failed to scrape URL", "gathering"},
		{"model", &ingest.StageError{Stage: ingest.StageCompleting, Err: errors.New("boom")}, http.StatusUnprocessableEntity, "AI analysis failed", "completing"},
		{"unconfigured", &ingest.StageError{Stage: ingest.StageCompleting, Err: &aiprovider.ModelError{Kind: aiprovider.ErrorUnconfigured}}, http.StatusUnprocessableEntity, aiprovider.NotConfiguredMessage, "completing"},
		{"store", &ingest.StageError{Stage: ingest.StageDone, Err: errors.New("db down")}, http.StatusInternalServerError, "failed to save recipe", "done"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, newTestHandler(&fakeImporter{err: tc.err}, &fakeAssistant{}), http.MethodPost, "/api/v1/recipes/import", `{"url":"https://example.com"}`, true)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			body := decodeBody[ErrorResponse](t, rec)
			if body.Detail != tc.detail || body.Stage != tc.stage {
				t.Fatalf("unexpected error body: %+v", body)
			}
		})
	}
}

func TestImportValidatesBody(t *testing.T) {
	handler := newTestHandler(&fakeImporter{}, &fakeAssistant{})
	if rec := doRequest(t, handler, http.MethodPost, "/api/v1/recipes/import", `{"url":""}`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty url, got %d", rec.Code)
	}
	if rec := doRequest(t, handler, http.MethodPost, "/api/v1/recipes/import", `not json`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestAnalyzeVideo(t *testing.T) {
	importer := &fakeImporter{enrichOK: true}
	handler := newTestHandler(importer, &fakeAssistant{})
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/agent/analyze-video/rec-9?video_url=https%3A%2F%2Fyoutu.be%2Fabc", "", true)
	body := decodeBody[RespStatus](t, rec)
	if rec.Code != http.StatusOK || body.Status != "success" {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
	if importer.gotRecipe != "rec-9" || importer.gotVideo != "https://youtu.be/abc" {
		t.Fatalf("unexpected enrich args: %q %q", importer.gotRecipe, importer.gotVideo)
	}

	importer.enrichOK = false
	rec = doRequest(t, handler, http.MethodPost, "/api/v1/agent/analyze-video/rec-9?video_url=https%3A%2F%2Fyoutu.be%2Fabc", "", true)
	if body = decodeBody[RespStatus](t, rec); body.Status != "error" {
		t.Fatalf("expected error status, got %+v", body)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/agent/analyze-video/rec-9", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without video_url, got %d", rec.Code)
	}
}

func TestChatAndConsult(t *testing.T) {
	asst := &fakeAssistant{answer: "Use more salt."}
	handler := newTestHandler(&fakeImporter{}, asst)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/agent/chat", `{"message":"bland soup?"}`, true)
	if got := decodeBody[RespChat](t, rec); rec.Code != http.StatusOK || got.Response != "Use more salt." {
		t.Fatalf("unexpected chat response %d %+v", rec.Code, got)
	}
	rec = doRequest(t, handler, http.MethodPost, "/api/v1/agent/consult", `{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected consult status %d", rec.Code)
	}
	if len(asst.history) != 2 || asst.history[1].Role != "assistant" {
		t.Fatalf("history not passed through: %+v", asst.history)
	}
}

func TestAssistantErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{assistant.ErrEmptyMessage, http.StatusBadRequest},
		{errors.New("upstream exploded"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		rec := doRequest(t, newTestHandler(&fakeImporter{}, &fakeAssistant{err: tc.err}), http.MethodPost, "/api/v1/agent/chat", `{"message":"x"}`, true)
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
	}
	stageErr := &ingest.StageError{Stage: ingest.StageParsing, Err: errors.New("bad json")}
	rec := doRequest(t, newTestHandler(&fakeImporter{}, &fakeAssistant{err: stageErr}), http.MethodPost, "/api/v1/agent/recipe-from-ingredients", `{"ingredients":["eggs"]}`, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestFromIngredients(t *testing.T) {
	rec := doRequest(t, newTestHandler(&fakeImporter{}, &fakeAssistant{}), http.MethodPost, "/api/v1/agent/recipe-from-ingredients", `{"ingredients":["eggs","spinach"]}`, true)
	got := decodeBody[recipe.ExtractedRecord](t, rec)
	if rec.Code != http.StatusOK || got.Title != "Draft" || got.Ingredients[0].Name != "eggs" {
		t.Fatalf("unexpected draft %d %+v", rec.Code, got)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := NewServer(&fakeImporter{}, &fakeAssistant{}, TrustedHeaderAuth{}, zerolog.Nop())
	srv.AllowCORS = true
	rec := doRequest(t, srv.Handler(), http.MethodOptions, "/api/v1/agent/chat", "", false)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response %d %v", rec.Code, rec.Header())
	}
}
