// Package handler exposes the practice, catalog and mentor services as a
// JSON API.
package handler

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/ssbprep/internal/catalog"
	appI18n "github.com/pavelanni/ssbprep/internal/i18n"
	"github.com/pavelanni/ssbprep/internal/mentor"
	"github.com/pavelanni/ssbprep/internal/model"
	"github.com/pavelanni/ssbprep/internal/practice"
)

// maxBodyBytes caps request bodies; stories and interview answers are the
// largest payloads.
const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	catalog  *catalog.Catalog
	practice *practice.Service
	mentor   *mentor.Service
	config   model.ServerConfig
	validate *validator.Validate
}

// New creates a new Handler.
func New(c *catalog.Catalog, p *practice.Service, m *mentor.Service, cfg model.ServerConfig) (*Handler, error) {
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	return &Handler{
		catalog:  c,
		practice: p,
		mentor:   m,
		config:   cfg,
		validate: newValidator(),
	}, nil
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Router builds the chi router with the middleware stack and all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware(h.config.Lang))

	r.NotFound(h.handleNotFound)
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Get("/oir/questions", h.handleOIRQuestions)
		r.Post("/oir/submit", submit(h, h.practice.SubmitOIR))

		r.Get("/ppdt/images", h.handlePPDTImages)
		r.Post("/ppdt/submit", submit(h, h.practice.SubmitPPDT))

		r.Get("/tat/scenarios", h.handleTATScenarios)
		r.Post("/tat/submit", submit(h, h.practice.SubmitTAT))

		r.Get("/wat/words", h.handleWATWords)
		r.Post("/wat/submit", submit(h, h.practice.SubmitWAT))

		r.Get("/srt/situations", h.handleSRTSituations)
		r.Post("/srt/submit", submit(h, h.practice.SubmitSRT))

		r.Post("/interview/start", h.handleInterviewStart)
		r.Post("/interview/submit", submit(h, h.practice.SubmitInterview))

		r.Get("/defense-gk/quiz", h.handleDefenseGKQuiz)
		r.Get("/current-affairs/quiz", h.handleCurrentAffairsQuiz)
		r.Get("/gto/tasks", h.handleGTOTasks)

		r.Post("/chat/mentor", h.handleChat)
		r.Get("/chat/history/{user_id}", h.handleChatHistory)
		r.Get("/progress/{user_id}", h.handleProgress)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, model.HealthStatus{
		Status:  "healthy",
		Service: appI18n.T(r.Context(), "ServiceName"),
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, codeNotFound, appI18n.T(r.Context(), "NotFound"))
}
