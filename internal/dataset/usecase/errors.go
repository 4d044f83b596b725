package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/tabmerge/internal/dataset/table"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
)

var (
	ErrDatasetNotFound        = errors.New("dataset not found")
	ErrHandleNotFound         = errors.New("staged merge not found or expired")
	ErrObjectStoreUnavailable = errors.New("object store unavailable")
	ErrIndexWriteFailed       = errors.New("metadata index write failed")
	ErrNameTaken              = errors.New("dataset name already exists")

	// errInconsistentState marks an object written without its index row.
	// It drives compensation and is never returned to callers.
	errInconsistentState = errors.New("object stored without index row")
)

type kind struct {
	sentinel error
	reason   string
	errType  pkgerror.Type
	code     pkgerror.Code
}

var kinds = []kind{
	{ErrDatasetNotFound, "DATASET_NOT_FOUND", pkgerror.TypeBusiness, pkgerror.CodeNotFound},
	{ErrHandleNotFound, "HANDLE_NOT_FOUND", pkgerror.TypeBusiness, pkgerror.CodeNotFound},
	{ErrNameTaken, "NAME_TAKEN", pkgerror.TypeBusiness, pkgerror.CodeConflict},
	{table.ErrSchemaMismatch, "SCHEMA_MISMATCH", pkgerror.TypeValidation, pkgerror.CodeInvalidInput},
	{table.ErrUnsupportedFormat, "UNSUPPORTED_FORMAT", pkgerror.TypeValidation, pkgerror.CodeInvalidInput},
	{table.ErrUnsupportedJoin, "UNSUPPORTED_JOIN", pkgerror.TypeValidation, pkgerror.CodeInvalidInput},
	{table.ErrParse, "PARSE_ERROR", pkgerror.TypeValidation, pkgerror.CodeInvalidFormat},
	{table.ErrCorruptPayload, "CORRUPT_PAYLOAD", pkgerror.TypeServer, pkgerror.CodeInternal},
	{ErrObjectStoreUnavailable, "OBJECT_STORE_UNAVAILABLE", pkgerror.TypeServer, pkgerror.CodeUnavailable},
	{ErrIndexWriteFailed, "INDEX_WRITE_FAILED", pkgerror.TypeServer, pkgerror.CodeInternal},
	{pkgerror.ErrConflict, "CONFLICT", pkgerror.TypeBusiness, pkgerror.CodeConflict},
}

// kindErr attaches the failure kind of err so the router can render a stable
// reason and status code.
func kindErr(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return pkgerror.NewKind(err, k.reason, k.errType, k.code)
		}
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerror.NewTimeout(err)
	}
	return pkgerror.NewServer(err)
}
