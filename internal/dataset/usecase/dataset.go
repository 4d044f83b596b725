package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/dataset/table"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkglog"
)

// DeleteDataset removes the object and then the index row. When the object
// cannot be removed the row is kept, so the row never outlives a live object
// silently.
func (u *Usecase) DeleteDataset(ctx context.Context, id int64) error {
	ctx = pkglog.WithAttrs(ctx, "dataset_id", id)

	rec, err := u.index.Get(ctx, id)
	if errors.Is(err, pkgerror.ErrNotFound) {
		return kindErr(fmt.Errorf("%w: id %d", ErrDatasetNotFound, id))
	}
	if err != nil {
		return normalizeErr(err)
	}

	if err := u.objects.Delete(ctx, rec.Path); err != nil && !errors.Is(err, pkgerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to delete dataset object", "error", err)
		return kindErr(fmt.Errorf("%w: dataset %d could not be deleted", ErrObjectStoreUnavailable, id))
	}

	err = u.index.Delete(ctx, id)
	if errors.Is(err, pkgerror.ErrNotFound) {
		return kindErr(fmt.Errorf("%w: id %d", ErrDatasetNotFound, id))
	}
	if err != nil {
		slog.ErrorContext(ctx, "object deleted but index row kept", "error", err)
		return kindErr(fmt.Errorf("%w: dataset %d", ErrIndexWriteFailed, id))
	}

	slog.InfoContext(ctx, "dataset deleted", "name", rec.Name)
	return nil
}

// Upload stores a new CSV or XLSX dataset under its file name.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	name := path.Base(strings.TrimSpace(strings.ReplaceAll(in.FileName, "\\", "/")))
	if name == "." || name == "/" || name == "" {
		return UploadResult{}, pkgerror.NewInvalidInput(errors.New("file name is required"))
	}
	if strings.TrimSpace(in.UploadedBy) == "" {
		return UploadResult{}, pkgerror.NewInvalidInput(errors.New("uploaded_by is required"))
	}

	format, ok := entity.ParseFormat(path.Ext(name))
	if !ok {
		return UploadResult{}, kindErr(fmt.Errorf("%w: only CSV or Excel files allowed", table.ErrUnsupportedFormat))
	}

	if _, err := table.Parse(in.Body, format); err != nil {
		return UploadResult{}, kindErr(fmt.Errorf("file %s: %w", name, err))
	}

	unlock := u.names.lock(name)
	defer unlock()

	taken, err := u.objects.Exists(ctx, name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check object", "name", name, "error", err)
		return UploadResult{}, kindErr(fmt.Errorf("%w: upload could not be checked", ErrObjectStoreUnavailable))
	}
	if taken {
		return UploadResult{}, kindErr(fmt.Errorf("%w: %s", ErrNameTaken, name))
	}

	if err := u.objects.Put(ctx, name, in.Body); err != nil {
		slog.ErrorContext(ctx, "failed to store upload", "name", name, "error", err)
		return UploadResult{}, kindErr(fmt.Errorf("%w: upload could not be stored", ErrObjectStoreUnavailable))
	}

	size := int64(len(in.Body))
	id, err := u.index.Insert(ctx, entity.Dataset{
		Name:        name,
		Format:      format,
		Size:        size,
		Description: in.Description,
		UploadedBy:  strings.TrimSpace(in.UploadedBy),
		Path:        name,
		Status:      entity.DatasetStatusActive,
	})
	if errors.Is(err, pkgerror.ErrConflict) {
		// Another writer owns the live row for this name, and the object with it.
		slog.WarnContext(ctx, "upload lost name race", "name", name, "error", err)
		return UploadResult{}, kindErr(fmt.Errorf("%w: %s", ErrNameTaken, name))
	}
	if err != nil {
		u.compensate(ctx, name, fmt.Errorf("%w: %v", errInconsistentState, err))
		return UploadResult{}, kindErr(fmt.Errorf("%w: upload could not be recorded", ErrIndexWriteFailed))
	}

	slog.InfoContext(ctx, "dataset uploaded", "dataset_id", id, "name", name, "size", size)

	return UploadResult{DatasetID: id, FileName: name, Format: format, Size: size}, nil
}

// ListFiles returns every dataset that is not deleted, oldest first.
func (u *Usecase) ListFiles(ctx context.Context) ([]entity.Dataset, error) {
	list, err := u.index.ListActive(ctx)
	if err != nil {
		return nil, normalizeErr(err)
	}
	return list, nil
}
