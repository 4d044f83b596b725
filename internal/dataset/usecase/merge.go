package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/dataset/table"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkglog"
)

const mergedNameLayout = "20060102_150405"

// ComputeMerge joins two indexed datasets and stages the result.
//
// Nothing is staged unless every step succeeds: both ids resolve, both
// objects are fetched, and the join is valid.
func (u *Usecase) ComputeMerge(ctx context.Context, in MergeInput) (MergeResult, error) {
	joinType, ok := entity.ParseJoinType(string(in.Spec.Type))
	if !ok {
		return MergeResult{}, kindErr(fmt.Errorf("%w: %q, want one of inner, left, right, outer", table.ErrUnsupportedJoin, in.Spec.Type))
	}
	spec := entity.JoinSpec{Column: table.NormalizeColumn(in.Spec.Column), Type: joinType}
	if spec.Column == "" {
		return MergeResult{}, kindErr(fmt.Errorf("%w: join column is empty", table.ErrSchemaMismatch))
	}

	left, right, err := u.resolvePair(ctx, in.LeftID, in.RightID)
	if err != nil {
		return MergeResult{}, err
	}

	leftData, rightData, err := u.fetchPair(ctx, left, right)
	if err != nil {
		return MergeResult{}, err
	}

	joined, err := table.JoinBytes(leftData, left.Format, rightData, right.Format, spec)
	if err != nil {
		return MergeResult{}, kindErr(fmt.Errorf("%s join of dataset %d with %d on %q: %w", spec.Type, left.ID, right.ID, spec.Column, err))
	}

	payload, err := table.Encode(joined)
	if err != nil {
		return MergeResult{}, kindErr(err)
	}

	lineage := fmt.Sprintf("Merged dataset: %s join of %s and %s on %s", spec.Type, left.Name, right.Name, spec.Column)
	staged, err := u.staging.Stage(ctx, payload, lineage)
	if err != nil {
		return MergeResult{}, kindErr(err)
	}

	slog.InfoContext(ctx, "merge staged",
		"handle", staged.Handle,
		"left_id", left.ID,
		"right_id", right.ID,
		"join_type", spec.Type,
		"join_column", spec.Column,
		"rows", joined.NumRows(),
	)

	return MergeResult{
		Handle:    staged.Handle,
		Spec:      spec,
		Columns:   joined.Names(),
		Preview:   joined.Head(u.previewRows),
		RowCount:  joined.NumRows(),
		ExpiresAt: staged.ExpiresAt,
	}, nil
}

func (u *Usecase) resolvePair(ctx context.Context, leftID, rightID int64) (entity.Dataset, entity.Dataset, error) {
	left, lerr := u.index.Get(ctx, leftID)
	right, rerr := u.index.Get(ctx, rightID)

	var missing []string
	for _, r := range []struct {
		id  int64
		err error
	}{{leftID, lerr}, {rightID, rerr}} {
		if r.err == nil {
			continue
		}
		if !errors.Is(r.err, pkgerror.ErrNotFound) {
			return entity.Dataset{}, entity.Dataset{}, normalizeErr(r.err)
		}
		missing = append(missing, fmt.Sprint(r.id))
	}
	if len(missing) > 0 {
		return entity.Dataset{}, entity.Dataset{}, kindErr(fmt.Errorf("%w: id %s", ErrDatasetNotFound, strings.Join(missing, ", ")))
	}

	return left, right, nil
}

func (u *Usecase) fetchPair(ctx context.Context, left, right entity.Dataset) ([]byte, []byte, error) {
	var leftData, rightData []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := u.fetch(gctx, left)
		leftData = data
		return err
	})
	g.Go(func() error {
		data, err := u.fetch(gctx, right)
		rightData = data
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, kindErr(err)
	}

	return leftData, rightData, nil
}

func (u *Usecase) fetch(ctx context.Context, rec entity.Dataset) ([]byte, error) {
	data, err := u.objects.Get(ctx, rec.Path)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch dataset object", "dataset_id", rec.ID, "error", err)
		return nil, fmt.Errorf("%w: dataset %d could not be fetched", ErrObjectStoreUnavailable, rec.ID)
	}
	return data, nil
}

// PromoteMerge persists a staged merge as a CSV object plus an index row and
// destroys the handle. On failure the handle stays promotable until it
// expires, and no object is left without its row.
func (u *Usecase) PromoteMerge(ctx context.Context, handle string) (PromoteResult, error) {
	ctx = pkglog.WithAttrs(ctx, "handle", handle)

	staged, err := u.staging.Claim(ctx, handle)
	if err != nil {
		return PromoteResult{}, kindErr(ErrHandleNotFound)
	}

	tbl, err := table.Decode(staged.Payload)
	if err != nil {
		u.staging.Commit(ctx, handle)
		slog.ErrorContext(ctx, "dropping staged merge with corrupt payload", "error", err)
		return PromoteResult{}, kindErr(err)
	}

	data, err := tbl.CSV()
	if err != nil {
		u.staging.Release(ctx, handle)
		return PromoteResult{}, normalizeErr(err)
	}

	name := u.mergedName()
	if err := u.objects.Put(ctx, name, data); err != nil {
		u.staging.Release(ctx, handle)
		slog.ErrorContext(ctx, "failed to store merged object", "error", err)
		return PromoteResult{}, kindErr(fmt.Errorf("%w: merged dataset could not be stored", ErrObjectStoreUnavailable))
	}

	id, err := u.index.Insert(ctx, entity.Dataset{
		Name:        name,
		Format:      entity.FormatCSV,
		Size:        int64(len(data)),
		Description: staged.Lineage,
		UploadedBy:  u.uploader,
		Path:        name,
		Status:      entity.DatasetStatusMerged,
	})
	if err != nil {
		u.compensate(ctx, name, fmt.Errorf("%w: %v", errInconsistentState, err))
		u.staging.Release(ctx, handle)
		return PromoteResult{}, kindErr(fmt.Errorf("%w: merged dataset could not be recorded", ErrIndexWriteFailed))
	}

	u.staging.Commit(ctx, handle)
	slog.InfoContext(ctx, "merge promoted", "dataset_id", id, "file_name", name)

	return PromoteResult{FileName: name, DatasetID: id, Size: int64(len(data))}, nil
}

// DiscardMerge drops a staged merge that has not been promoted. A handle held
// by a promote in progress reports ErrHandleNotFound; it survives if that
// promote fails.
func (u *Usecase) DiscardMerge(ctx context.Context, handle string) error {
	if !u.staging.Discard(ctx, handle) {
		return kindErr(ErrHandleNotFound)
	}
	slog.InfoContext(ctx, "merge discarded", "handle", handle)
	return nil
}

func (u *Usecase) mergedName() string {
	name := "merged_" + u.clock.Now().Format(mergedNameLayout)
	if u.sequence != nil {
		name += fmt.Sprintf("_%d", u.sequence.Generate())
	}
	return name + ".csv"
}
