package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.mau.fi/util/exhttp"
	"go.mau.fi/util/requestlog"

	"github.com/beeper/recipe-ingest/pkg/prompt"
	"github.com/beeper/recipe-ingest/pkg/recipe"
)

// Importer is the ingest pipeline as seen by the HTTP layer.
type Importer interface {
	ImportFromURL(ctx context.Context, rawURL, authorID string) (*recipe.Record, error)
	EnrichFromVideo(ctx context.Context, recipeID, videoURL string) bool
}

// Assistant is the free-form culinary assistant as seen by the HTTP layer.
type Assistant interface {
	Chat(ctx context.Context, message string) (string, error)
	Consult(ctx context.Context, history []prompt.Turn) (string, error)
	FromIngredients(ctx context.Context, ingredients []string) (*recipe.ExtractedRecord, error)
}

type Server struct {
	importer  Importer
	assistant Assistant
	auth      Authenticator
	log       zerolog.Logger

	// AllowCORS adds permissive CORS headers and answers preflight requests.
	AllowCORS bool
}

func NewServer(importer Importer, assistant Assistant, auth Authenticator, log zerolog.Logger) *Server {
	return &Server{
		importer:  importer,
		assistant: assistant,
		auth:      auth,
		log:       log.With().Str("component", "api").Logger(),
	}
}

// Handler returns the routed API with logging middleware applied.
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("GET /healthz", s.handleHealth)
	router.HandleFunc("POST /api/v1/recipes/import", s.requireUser(s.handleImport))
	router.HandleFunc("POST /api/v1/agent/analyze-video/{recipe_id}", s.requireUser(s.handleAnalyzeVideo))
	router.HandleFunc("POST /api/v1/agent/chat", s.requireUser(s.handleChat))
	router.HandleFunc("POST /api/v1/agent/consult", s.requireUser(s.handleConsult))
	router.HandleFunc("POST /api/v1/agent/recipe-from-ingredients", s.requireUser(s.handleFromIngredients))

	middlewares := []exhttp.Middleware{
		hlog.NewHandler(s.log),
		hlog.RequestIDHandler("request_id", "X-Request-ID"),
		requestlog.AccessLogger(requestlog.Options{TrustXForwardedFor: true, Recover: true}),
	}
	if s.AllowCORS {
		middlewares = append(middlewares, exhttp.CORSMiddleware)
	}
	return exhttp.ApplyMiddleware(router, middlewares...)
}

type userIDContextKey struct{}

func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.Authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated", "")
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey{}, userID)
		ctx = zerolog.Ctx(ctx).With().Str("user_id", userID).Logger().WithContext(ctx)
		next(w, r.WithContext(ctx))
	}
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey{}).(string)
	return userID
}
