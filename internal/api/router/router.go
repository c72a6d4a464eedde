package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/get-synced/Magnet/internal/chat"
	"github.com/get-synced/Magnet/internal/discovery"
	httpmiddleware "github.com/get-synced/Magnet/internal/http/middleware"
	"github.com/get-synced/Magnet/internal/leads"
	"github.com/get-synced/Magnet/internal/webchat"
	"github.com/get-synced/Magnet/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	LeadsHandler     *leads.Handler
	DiscoveryHandler *discovery.Handler
	ChatHandler      *chat.Handler
	WebChatHandler   *webchat.Handler
	MetricsHandler   http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Requests/sec and burst per IP on the completion-backed endpoints.
	// Zero disables rate limiting (tests, local dev).
	ChatRateLimit float64
	ChatRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.LeadsHandler != nil {
			api.Post("/auth/register", cfg.LeadsHandler.Register)
		}
		if cfg.DiscoveryHandler != nil {
			api.Post("/discovery/submit", cfg.DiscoveryHandler.Submit)
		}
		if cfg.ChatHandler != nil {
			api.Group(func(chatRoutes chi.Router) {
				if cfg.ChatRateLimit > 0 {
					chatRoutes.Use(httpmiddleware.RateLimit(cfg.ChatRateLimit, cfg.ChatRateBurst))
				}
				chatRoutes.Post("/chat", cfg.ChatHandler.Message)
				chatRoutes.Get("/chat/history", cfg.ChatHandler.History)
			})
		}
	})

	if cfg.WebChatHandler != nil {
		r.Route("/chat", func(widget chi.Router) {
			widget.Get("/ws", cfg.WebChatHandler.HandleWebSocket)
			widget.Get("/widget.js", cfg.WebChatHandler.HandleWidgetJS)
			widget.Get("/history", cfg.WebChatHandler.HandleHistory)
			widget.Group(func(msg chi.Router) {
				if cfg.ChatRateLimit > 0 {
					msg.Use(httpmiddleware.RateLimit(cfg.ChatRateLimit, cfg.ChatRateBurst))
				}
				msg.Post("/message", cfg.WebChatHandler.HandleMessage)
			})
		})
	}

	if cfg.LeadsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			admin.Patch("/leads/{leadID}/status", cfg.LeadsHandler.UpdateStatus)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
