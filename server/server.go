// Package server serves the catalog dashboard's JSON API
package server

import (
	"context"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/redactor"
	"github.com/msbooks/bookshelf/session"
	"github.com/msbooks/bookshelf/transfer"
	"go.uber.org/zap"
)

const (
	loggerKey  = "logger"
	sessionKey = "session"

	shutdownTimeout = 5 * time.Second
)

// Options configures the API
type Options struct {
	Store   catalog.Store
	Marks   *session.Marks
	Dataset *transfer.Dataset // optional, autosaves after every change
	Logger  *zap.Logger

	Password        redactor.String
	Backend         string
	SuggestionLimit int
	PageLimit       int
}

// New returns the API handler
func New(opts Options) http.Handler {
	return newEngine(opts)
}

func newEngine(opts Options) *gin.Engine {
	if opts.Marks == nil {
		opts.Marks = session.NewMarks(0)
	}
	logger := opts.Logger
	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(logger, time.RFC3339, true),
		recovery(logger, true),
		func(c *gin.Context) {
			c.Set(loggerKey, logger)
		},
	)

	api := engine.Group("/api/v1")
	setupAPI(api, opts)
	return engine
}

// Run serves the API on 'addr' until ctx is canceled, then shuts down gracefully
func Run(ctx context.Context, addr string, opts Options) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: New(opts),
	}
	errs := make(chan error, 1)
	go func() {
		opts.Logger.Info("Starting server", zap.String("addr", addr))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		opts.Logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func setupAPI(router gin.IRouter, opts Options) {
	auth := newAuthenticator(opts.Password)
	store, marks, dataset := opts.Store, opts.Marks, opts.Dataset

	router.POST("/login", signIn(auth))
	router.GET("/version", getVersion)

	authed := router.Group("")
	authed.Use(requireAuth(auth))
	authed.POST("/logout", signOut(auth, marks))

	authed.GET("/books", listBooks(store, marks, opts.PageLimit))
	authed.POST("/books", addBook(store, marks, dataset))
	authed.PATCH("/books/:id", updateBook(store, dataset))
	authed.DELETE("/books", removeBooks(store, marks, dataset))
	authed.POST("/books/bulk", bulkAddBooks(store, marks, dataset))
	authed.GET("/suggestions", getSuggestions(store, opts.SuggestionLimit))
	authed.GET("/duplicates", getDuplicates(store))
	authed.GET("/title-suggestion", getTitleSuggestion)

	authed.GET("/session/new", getNewBooks(store, marks))
	authed.DELETE("/session/new", clearNewBooks(marks))
	authed.POST("/session/titles", getSelectedTitles(store))

	authed.GET("/export.csv", exportCSV(store))
	authed.GET("/export.json", exportJSON(store))
	authed.POST("/import", importBooks(store, marks, dataset))
	authed.GET("/status", getStatus(store, opts.Backend, dataset))
}

func logger(c *gin.Context) *zap.Logger {
	return c.MustGet(loggerKey).(*zap.Logger)
}

func abortWithClientError(c *gin.Context, status int, err error) {
	log := logger(c).WithOptions(zap.AddCallerSkip(1))
	if status/100 == 5 {
		log.Error("Aborting with server error", zap.Error(err))
	} else {
		log.Info("Aborting with client error", zap.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(status, map[string]string{
		"Error": err.Error(),
	})
}

// saveDataset queues an autosave, if enabled
func saveDataset(dataset *transfer.Dataset) {
	if dataset != nil {
		dataset.Save()
	}
}
