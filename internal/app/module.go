package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/tabmerge/internal/dataset"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.dataset.enabled") {
		closer, err := dataset.New(dataset.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
			Sequence:  a.snowflake,
			Objects:   a.objects,
			Index:     a.index,
		})
		if err != nil {
			slog.Error("failed to init module dataset", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			a.addCloser("Dataset", closer)
		}
	}
}
