package event

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
)

var errNoObjectName = errors.New("orphan event without object name")

type ObjectDeleter interface {
	Delete(ctx context.Context, name string) error
}

// ObjectReaper deletes objects that were written without an index row. An
// object that is already gone counts as reaped.
type ObjectReaper struct {
	objects ObjectDeleter
}

func NewObjectReaper(objects ObjectDeleter) *ObjectReaper {
	return &ObjectReaper{objects: objects}
}

func (r *ObjectReaper) Handle(ctx context.Context, event entity.OrphanEvent) error {
	if event.ObjectName == "" {
		return errNoObjectName
	}

	err := r.objects.Delete(ctx, event.ObjectName)
	if err != nil && !errors.Is(err, pkgerror.ErrNotFound) {
		return err
	}

	slog.InfoContext(ctx, "orphan object removed", "event_id", event.EventID, "object", event.ObjectName, "reason", event.Reason)
	return nil
}
