package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"
	"github.com/shandysiswandi/tabmerge/internal/dataset/store"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkglog"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkguid"
)

//nolint:gochecknoglobals // read-only
var configDefaults = map[string]any{
	"tz":                                     "UTC",
	"log.level":                              "info",
	"log.format":                             "json",
	"server.address.http":                    ":8081",
	"server.shutdown_timeout":                "15s",
	"server.cors.allowed_origins":            "*",
	"modules.dataset.storage.driver":         "memory",
	"modules.dataset.index.driver":           "memory",
	"modules.dataset.staging.ttl":            "10m",
	"modules.dataset.staging.sweep_interval": "30s",
	"modules.dataset.merge.preview_rows":     5,
	"modules.dataset.merge.uploader":         "System",
	"modules.dataset.upload.max_bytes":       32 << 20,
	"modules.dataset.reaper.buffer":          64,
	"modules.dataset.reaper.workers":         1,
	"modules.dataset.reaper.max_retries":     3,
	"modules.dataset.reaper.backoff":         "200ms",
	"modules.dataset.reaper.publish_timeout": "2s",
	"postgres.max_open_conns":                10,
	"minio.region":                           "us-east-1",
	"snowflake.node_id":                      -1,
}

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path, configDefaults)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	pkglog.Configure(cfg.GetString("log.format"), cfg.GetString("log.level"))

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()

	sf, err := pkguid.NewSnowflake(a.config.GetInt("snowflake.node_id"))
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.snowflake = sf
	slog.Info("snowflake generator ready", "node_id", sf.NodeID())
}

func (a *App) initResources() {
	a.probes = map[string]func(context.Context) error{}

	ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
	defer cancel()

	switch driver := a.config.GetString("modules.dataset.storage.driver"); driver {
	case "minio":
		cfg := store.MinioConfig{
			Endpoint:  a.config.GetString("minio.endpoint"),
			AccessKey: a.config.GetString("minio.access_key"),
			SecretKey: a.config.GetString("minio.secret_key"),
			Bucket:    a.config.GetString("minio.bucket"),
			Region:    a.config.GetString("minio.region"),
			UseSSL:    a.config.GetBool("minio.use_ssl"),
		}
		client, err := store.NewMinioClient(cfg)
		if err != nil {
			slog.Error("failed to init minio client", "error", err)
			os.Exit(1)
		}

		objects := store.NewMinioObjectStore(client, cfg.Bucket, cfg.Region)
		if err := objects.EnsureBucket(ctx); err != nil {
			slog.Error("failed to ensure minio bucket", "bucket", cfg.Bucket, "error", err)
			os.Exit(1)
		}
		a.objects = objects
		a.probes["minio"] = func(ctx context.Context) error {
			ok, err := objects.BucketExists(ctx)
			if err == nil && !ok {
				return fmt.Errorf("bucket %q is missing", cfg.Bucket)
			}
			return err
		}
	case "", "memory":
		slog.Warn("object store is in memory, datasets are lost on restart")
		a.objects = store.NewInMemoryObjectStore()
	default:
		slog.Error("unknown object store driver", "driver", driver)
		os.Exit(1)
	}

	switch driver := a.config.GetString("modules.dataset.index.driver"); driver {
	case "postgres":
		db, err := store.OpenPostgres(ctx, a.config.GetString("postgres.dsn"), int(a.config.GetInt("postgres.max_open_conns")))
		if err != nil {
			slog.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		if err := store.Migrate(db); err != nil {
			slog.Error("failed to migrate postgres", "error", err)
			os.Exit(1)
		}
		a.db = db
		a.index = store.NewPostgresIndex(db)
		a.probes["postgres"] = db.PingContext
	case "", "memory":
		slog.Warn("metadata index is in memory, datasets are lost on restart")
		a.index = store.NewInMemoryIndex()
	default:
		slog.Error("unknown metadata index driver", "driver", driver)
		os.Exit(1)
	}
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("server.cors.allowed_origins"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	for name, probe := range a.probes {
		a.router.AddHealthCheck(name, probe)
	}
}

// initClosers registers shared resources after the modules, so modules are
// stopped before the resources they depend on.
func (a *App) initClosers() {
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})
	if a.db != nil {
		a.addCloser("Postgres", func(context.Context) error {
			return a.db.Close()
		})
	}
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
