package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/shandysiswandi/tabmerge/internal/dataset/usecase"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkglog"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkguid"
)

// App wires configuration, shared resources, the HTTP server and the dataset
// module.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	goroutine *pkgroutine.Manager

	// resources
	db      *sql.DB
	objects usecase.ObjectStore
	index   usecase.Index
	probes  map[string]func(context.Context) error

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closed in registration order
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New builds the application and exits the process when a required resource
// cannot be initialized.
func New() *App {
	pkglog.InitLogging()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initLibraries()
	app.initResources()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
