package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exhttp"

	"github.com/beeper/recipe-ingest/pkg/assistant"
	"github.com/beeper/recipe-ingest/pkg/ingest"
	"github.com/beeper/recipe-ingest/pkg/prompt"
)

const maxRequestBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Stage  string `json:"stage,omitempty"`
}

func writeError(w http.ResponseWriter, status int, detail, stage string) {
	exhttp.WriteJSONResponse(w, status, ErrorResponse{Detail: detail, Stage: stage})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return false
	}
	return true
}

// writeAssistantError maps assistant failures: bad input is the caller's fault,
// anything else came from the model.
func writeAssistantError(w http.ResponseWriter, r *http.Request, err error) {
	var stageErr *ingest.StageError
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage), errors.Is(err, assistant.ErrEmptyHistory), errors.Is(err, assistant.ErrNoIngredients):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.As(err, &stageErr):
		writeError(w, stageErr.HTTPStatus(), stageErr.UserMessage(), string(stageErr.Stage))
	default:
		zerolog.Ctx(r.Context()).Err(err).Msg("Assistant request failed")
		writeError(w, http.StatusBadGateway, "error communicating with AI", "")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ReqImport struct {
	URL string `json:"url"`
}

// handleImport handles POST /api/v1/recipes/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ReqImport
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required", "")
		return
	}
	rec, err := s.importer.ImportFromURL(r.Context(), strings.TrimSpace(req.URL), userIDFromContext(r.Context()))
	if err != nil {
		var stageErr *ingest.StageError
		if errors.As(err, &stageErr) {
			writeError(w, stageErr.HTTPStatus(), stageErr.UserMessage(), string(stageErr.Stage))
		} else {
			writeError(w, http.StatusInternalServerError, "import failed", "")
		}
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusCreated, rec)
}

type RespStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleAnalyzeVideo handles POST /api/v1/agent/analyze-video/{recipe_id}?video_url=
func (s *Server) handleAnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	recipeID := r.PathValue("recipe_id")
	videoURL := strings.TrimSpace(r.URL.Query().Get("video_url"))
	if videoURL == "" {
		writeError(w, http.StatusBadRequest, "video_url is required", "")
		return
	}
	if !s.importer.EnrichFromVideo(r.Context(), recipeID, videoURL) {
		exhttp.WriteJSONResponse(w, http.StatusOK, RespStatus{Status: "error", Message: "Failed to update recipe from AI analysis"})
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, RespStatus{Status: "success", Message: "Recipe updated successfully"})
}

type ReqChat struct {
	Message string `json:"message"`
}

type RespChat struct {
	Response string `json:"response"`
}

// handleChat handles POST /api/v1/agent/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ReqChat
	if !decodeJSON(w, r, &req) {
		return
	}
	answer, err := s.assistant.Chat(r.Context(), req.Message)
	if err != nil {
		writeAssistantError(w, r, err)
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, RespChat{Response: answer})
}

type ReqConsult struct {
	Messages []prompt.Turn `json:"messages"`
}

// handleConsult handles POST /api/v1/agent/consult
func (s *Server) handleConsult(w http.ResponseWriter, r *http.Request) {
	var req ReqConsult
	if !decodeJSON(w, r, &req) {
		return
	}
	answer, err := s.assistant.Consult(r.Context(), req.Messages)
	if err != nil {
		writeAssistantError(w, r, err)
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, RespChat{Response: answer})
}

type ReqFromIngredients struct {
	Ingredients []string `json:"ingredients"`
}

// handleFromIngredients handles POST /api/v1/agent/recipe-from-ingredients
func (s *Server) handleFromIngredients(w http.ResponseWriter, r *http.Request) {
	var req ReqFromIngredients
	if !decodeJSON(w, r, &req) {
		return
	}
	draft, err := s.assistant.FromIngredients(r.Context(), req.Ingredients)
	if err != nil {
		writeAssistantError(w, r, err)
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, draft)
}
