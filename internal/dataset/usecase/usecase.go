package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkguid"
)

const (
	defaultPreviewRows = 5
	defaultUploader    = "System"

	defaultPublishTimeout = 2 * time.Second
)

type ObjectStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

type Index interface {
	Insert(ctx context.Context, rec entity.Dataset) (int64, error)
	Get(ctx context.Context, id int64) (entity.Dataset, error)
	Delete(ctx context.Context, id int64) error
	ListActive(ctx context.Context) ([]entity.Dataset, error)
}

type Staging interface {
	Stage(ctx context.Context, payload []byte, lineage string) (entity.StagedMerge, error)
	Discard(ctx context.Context, handle string) bool
	Claim(ctx context.Context, handle string) (entity.StagedMerge, error)
	Release(ctx context.Context, handle string)
	Commit(ctx context.Context, handle string)
}

type OrphanPublisher interface {
	Publish(ctx context.Context, event entity.OrphanEvent) error
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Objects  ObjectStore
	Index    Index
	Staging  Staging
	Orphans  OrphanPublisher
	Clock    Clock
	ID       pkguid.StringID
	Sequence pkguid.NumberID

	PreviewRows int
	Uploader    string
	// PublishTimeout bounds how long a request waits on a full orphan queue.
	PublishTimeout time.Duration
}

type Usecase struct {
	objects  ObjectStore
	index    Index
	staging  Staging
	orphans  OrphanPublisher
	clock    Clock
	id       pkguid.StringID
	sequence pkguid.NumberID
	names    *nameLocks

	previewRows    int
	uploader       string
	publishTimeout time.Duration
}

func New(dep Dependency) *Usecase {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	previewRows := dep.PreviewRows
	if previewRows <= 0 {
		previewRows = defaultPreviewRows
	}

	uploader := dep.Uploader
	if uploader == "" {
		uploader = defaultUploader
	}

	publishTimeout := dep.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}

	return &Usecase{
		objects:     dep.Objects,
		index:       dep.Index,
		staging:     dep.Staging,
		orphans:     dep.Orphans,
		clock:       clock,
		id:          dep.ID,
		sequence:    dep.Sequence,
		names:       newNameLocks(),
		previewRows: previewRows,
		uploader:    uploader,

		publishTimeout: publishTimeout,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// compensate removes an object whose index row could not be written. When the
// delete fails as well the object is handed to the orphan reaper. A full
// reaper queue drops the event after publishTimeout.
func (u *Usecase) compensate(ctx context.Context, name string, cause error) {
	ctx = context.WithoutCancel(ctx)
	slog.WarnContext(ctx, "compensating object write", "object", name, "error", cause)

	err := u.objects.Delete(ctx, name)
	if err == nil {
		return
	}

	slog.ErrorContext(ctx, "compensating delete failed", "object", name, "error", err)
	if u.orphans == nil {
		return
	}

	event := entity.OrphanEvent{ObjectName: name, Reason: cause.Error()}
	if u.id != nil {
		event.EventID = u.id.Generate()
	}
	pubCtx, cancel := context.WithTimeout(ctx, u.publishTimeout)
	defer cancel()

	if pubErr := u.orphans.Publish(pubCtx, event); pubErr != nil {
		slog.ErrorContext(ctx, "orphan event dropped", "object", name, "event_id", event.EventID,
			"reason", event.Reason, "error", pubErr)
	}
}
