package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wardlight/voterguide/internal/guide"
)

var (
	servePort       int
	serveManifest   string
	serveSurvey     string
	serveBoundaries string
	serveSheet      string
	serveCharset    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assembled guide over HTTP",
	Long:  "Builds the guide once at startup and serves read-only JSON endpoints. Filtering re-aggregates the in-memory rows; the sources are never re-parsed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, err := buildGuide(ctx, serveManifest, serveSurvey, serveBoundaries, serveSheet, serveCharset)
		if err != nil {
			return eris.Wrap(err, "serve: build guide")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(g, cfg.Server.AllowedOrigins),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Int("wards", len(g.Wards)),
			zap.Int("issues", len(g.Issues)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the guide API. All endpoints read the immutable guide;
// there is no write surface.
func newRouter(g *guide.Guide, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/guide", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, g)
		})

		r.Get("/issues", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"issues":         g.Issues,
				"comment_fields": g.CommentFields,
			})
		})

		r.Get("/wards", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, g.Wards)
		})

		r.Get("/wards/{key}", func(w http.ResponseWriter, req *http.Request) {
			key := chi.URLParam(req, "key")
			for i := range g.Wards {
				if g.Wards[i].Key == key {
					writeJSON(w, http.StatusOK, g.Wards[i])
					return
				}
			}
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown ward %q", key))
		})

		r.Get("/mayor", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, g.Mayoral)
		})

		r.Get("/filter", func(w http.ResponseWriter, req *http.Request) {
			sel := guide.FilterSelection{
				Issue:  req.URL.Query().Get("issue"),
				Answer: req.URL.Query().Get("answer"),
			}
			if sel.Issue != "" && !g.HasIssue(sel.Issue) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown issue %q", sel.Issue))
				return
			}
			switch sel.Answer {
			case "", "Yes", "No", "Undecided":
			default:
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid answer %q", sel.Answer))
				return
			}
			writeJSON(w, http.StatusOK, g.Filter(sel))
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestID tags each request with a UUID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, req.WithContext(req.Context()))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		zap.L().Debug("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", w.Header().Get("X-Request-ID")),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveManifest, "manifest", "", "dataset manifest YAML")
	serveCmd.Flags().StringVar(&serveSurvey, "survey", "", "survey export path or URL")
	serveCmd.Flags().StringVar(&serveBoundaries, "boundaries", "", "ward boundaries path or URL")
	serveCmd.Flags().StringVar(&serveSheet, "sheet", "", "worksheet name for XLSX surveys")
	serveCmd.Flags().StringVar(&serveCharset, "charset", "", "charset for CSV surveys")
	rootCmd.AddCommand(serveCmd)
}
