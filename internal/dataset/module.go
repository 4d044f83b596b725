package dataset

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/tabmerge/internal/dataset/event"
	"github.com/shandysiswandi/tabmerge/internal/dataset/inbound"
	"github.com/shandysiswandi/tabmerge/internal/dataset/store"
	"github.com/shandysiswandi/tabmerge/internal/dataset/usecase"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkguid"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
	Sequence  pkguid.NumberID

	// resources; in-memory implementations are used when nil
	Objects usecase.ObjectStore
	Index   usecase.Index
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}
	if dep.Objects == nil {
		dep.Objects = store.NewInMemoryObjectStore()
	}
	if dep.Index == nil {
		dep.Index = store.NewInMemoryIndex()
	}

	staging := store.NewStagingCache(store.StagingConfig{
		TTL:        dep.Config.GetDuration("modules.dataset.staging.ttl"),
		MaxEntries: int(dep.Config.GetInt("modules.dataset.staging.max_entries")),
	})
	sweepEvery := dep.Config.GetDuration("modules.dataset.staging.sweep_interval")
	dep.Goroutine.Go(dep.Context, "staging sweeper", func(ctx context.Context) error {
		return staging.Run(ctx, sweepEvery)
	})

	bus := event.NewBus(int(dep.Config.GetInt("modules.dataset.reaper.buffer")))
	consumer := event.NewReaperConsumer(bus, event.NewObjectReaper(dep.Objects), event.ConsumerConfig{
		Workers:     int(dep.Config.GetInt("modules.dataset.reaper.workers")),
		MaxRetries:  int(dep.Config.GetInt("modules.dataset.reaper.max_retries")),
		BaseBackoff: dep.Config.GetDuration("modules.dataset.reaper.backoff"),
	})
	consumer.Start()

	uc := usecase.New(usecase.Dependency{
		Objects:     dep.Objects,
		Index:       dep.Index,
		Staging:     staging,
		Orphans:     bus,
		ID:          dep.ID,
		Sequence:    dep.Sequence,
		PreviewRows: int(dep.Config.GetInt("modules.dataset.merge.preview_rows")),
		Uploader:    dep.Config.GetString("modules.dataset.merge.uploader"),

		PublishTimeout: dep.Config.GetDuration("modules.dataset.reaper.publish_timeout"),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config.GetInt("modules.dataset.upload.max_bytes"))

	slog.InfoContext(dep.Context, "dataset module ready",
		"staging_ttl", staging.TTL().String(),
		"staging_sweep", sweepEvery.String(),
		"reaper_buffer", dep.Config.GetInt("modules.dataset.reaper.buffer"),
	)

	return consumer.Stop, nil
}
