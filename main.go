package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"emotiondiary/internal/classifier"
	"emotiondiary/internal/config"
	"emotiondiary/internal/logging"
)

// App holds everything a request handler needs. It is built once in main.
type App struct {
	users       *UserStore
	analyses    *AnalysisStore
	classifier  *classifier.Classifier
	store       *sessions.CookieStore
	templateDir string
	log         logging.Logger
}

func NewApp(db *sql.DB, clf *classifier.Classifier, store *sessions.CookieStore, templateDir string, log logging.Logger) *App {
	return &App{
		users:       NewUserStore(db),
		analyses:    NewAnalysisStore(db),
		classifier:  clf,
		store:       store,
		templateDir: templateDir,
		log:         log,
	}
}

func (a *App) setupRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.logRequests)

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	r.HandleFunc("/", a.requireLogin(a.indexHandler)).Methods("GET")
	r.HandleFunc("/", a.requireLogin(a.analyzeHandler)).Methods("POST")
	r.HandleFunc("/api/analyses", a.requireLogin(a.apiAnalysesHandler)).Methods("GET")
	r.HandleFunc("/login", a.loginHandler).Methods("GET", "POST")
	r.HandleFunc("/register", a.registerHandler).Methods("GET", "POST")
	r.HandleFunc("/logout", a.requireLogin(a.logoutHandler)).Methods("GET")
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't load configuration: %s\n", err)
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Dev {
		log.Warn(ctx, "SECRET_KEY is not set, using the development key")
	}

	db, err := openDB(ctx, cfg.DSN())
	if err != nil {
		log.Error(ctx, "can't open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	clf := classifier.Load(ctx, classifier.NewHTTPBackend(cfg.InferenceURL, cfg.InferenceToken), log.With("model", cfg.ModelName))

	app := NewApp(db, clf, newStore(cfg.SecretKey), cfg.TemplateDir, log)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "shutdown failed", "error", err)
		}
	}()

	log.Info(ctx, "listening", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}
