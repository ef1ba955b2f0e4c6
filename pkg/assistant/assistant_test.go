package assistant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/beeper/recipe-ingest/pkg/aiprovider"
	"github.com/beeper/recipe-ingest/pkg/ingest"
	"github.com/beeper/recipe-ingest/pkg/prompt"
)

type fakeModel struct {
	text    string
	err     error
	prompts []*aiprovider.Prompt
}

func (m *fakeModel) Complete(_ context.Context, p *aiprovider.Prompt) (*aiprovider.Response, error) {
	m.prompts = append(m.prompts, p)
	if m.err != nil {
		return nil, m.err
	}
	return &aiprovider.Response{RawText: m.text}, nil
}

func TestUnconfiguredReturnsFixedMessageWithoutNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()
	a := New(aiprovider.NewClient(&aiprovider.Config{BaseURL: srv.URL + "/"}, zerolog.Nop()), nil)

	answer, err := a.Chat(context.Background(), "how long do I boil an egg?")
	if err != nil || answer != aiprovider.NotConfiguredMessage {
		t.Fatalf("unexpected chat result: %q %v", answer, err)
	}
	answer, err = a.Consult(context.Background(), []prompt.Turn{{Role: "user", Content: "hello"}})
	if err != nil || answer != aiprovider.NotConfiguredMessage {
		t.Fatalf("unexpected consult result: %q %v", answer, err)
	}
	_, err = a.FromIngredients(context.Background(), []string{"eggs"})
	var stageErr *ingest.StageError
	if !errors.As(err, &stageErr) || stageErr.UserMessage() != aiprovider.NotConfiguredMessage {
		t.Fatalf("expected not-configured stage error, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no network calls, got %d", calls.Load())
	}
}

func TestChatReturnsModelText(t *testing.T) {
	model := &fakeModel{text: "  About 7 minutes.\n"}
	answer, err := New(model, nil).Chat(context.Background(), "egg?")
	if err != nil || answer != "About 7 minutes." {
		t.Fatalf("unexpected answer: %q %v", answer, err)
	}
	if _, err = New(model, nil).Chat(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected empty message error, got %v", err)
	}
}

func TestChatPropagatesUpstreamError(t *testing.T) {
	model := &fakeModel{err: &aiprovider.ModelError{Kind: aiprovider.ErrorUpstream, Err: errors.New("boom")}}
	if _, err := New(model, nil).Chat(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
}

func TestConsultRejectsEmptyHistory(t *testing.T) {
	model := &fakeModel{text: "ok"}
	_, err := New(model, nil).Consult(context.Background(), []prompt.Turn{{Role: "system", Content: "x"}})
	if !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected empty history error, got %v", err)
	}
	if len(model.prompts) != 0 {
		t.Fatal("model should not be called")
	}
}

func TestFromIngredientsMapsDraft(t *testing.T) {
	model := &fakeModel{text: "Here you go:\n```json\n{\"title\":\"Spinach Omelette\",\"ingredients\":[{\"name\":\"Eggs\",\"amount\":3}],\"steps\":[\"whisk\",\"cook\"]}\n```"}
	rec, err := New(model, nil).FromIngredients(context.Background(), []string{"eggs", "spinach"})
	if err != nil {
		t.Fatalf("FromIngredients failed: %v", err)
	}
	if rec.Title != "Spinach Omelette" || rec.Ingredients[0].Amount != "3" || len(rec.Steps) != 2 {
		t.Fatalf("unexpected draft: %+v", rec)
	}
	if rec.WebURL != nil {
		t.Fatalf("draft should have no web url, got %v", *rec.WebURL)
	}
	if _, err = New(model, nil).FromIngredients(context.Background(), []string{" "}); !errors.Is(err, ErrNoIngredients) {
		t.Fatalf("expected no ingredients error, got %v", err)
	}
}
