package inbound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/dataset/usecase"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgrouter"
)

const (
	defaultJoinColumn     = "customer_id"
	defaultMaxUploadBytes = 32 << 20
)

var (
	errExpectedMultipart  = errors.New("expected a multipart/form-data body")
	errMalformedMultipart = errors.New("malformed multipart body")
)

type HTTPEndpoint struct {
	uc             uc
	maxUploadBytes int64
}

func (h *HTTPEndpoint) Upload(ctx context.Context, r *http.Request) (any, error) {
	form, err := h.readUploadForm(r)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Upload(ctx, form)
	if err != nil {
		return nil, err
	}

	return UploadResponse{
		ID:       result.DatasetID,
		FileName: result.FileName,
		Format:   result.Format,
		Size:     result.Size,
	}, nil
}

func (h *HTTPEndpoint) Files(ctx context.Context, r *http.Request) (any, error) {
	list, err := h.uc.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(list))
	for _, rec := range list {
		files = append(files, toHTTPFile(rec))
	}

	return FilesResponse(files), nil
}

func (h *HTTPEndpoint) Merge(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()

	leftID, err := parseID("file1_id", query.Get("file1_id"))
	if err != nil {
		return nil, err
	}
	rightID, err := parseID("file2_id", query.Get("file2_id"))
	if err != nil {
		return nil, err
	}

	column := query.Get("join_column")
	if strings.TrimSpace(column) == "" {
		column = defaultJoinColumn
	}
	joinType := entity.JoinType(strings.TrimSpace(query.Get("join_type")))
	if joinType == "" {
		joinType = entity.JoinInner
	}

	result, err := h.uc.ComputeMerge(ctx, usecase.MergeInput{
		LeftID:  leftID,
		RightID: rightID,
		Spec:    entity.JoinSpec{Column: column, Type: joinType},
	})
	if err != nil {
		return nil, err
	}

	return MergeResponse{
		CacheKey:  result.Handle,
		Columns:   result.Columns,
		Preview:   result.Preview,
		RowCount:  result.RowCount,
		ExpiresAt: result.ExpiresAt,
		message:   fmt.Sprintf("Merged using '%s' join on '%s'", result.Spec.Type, result.Spec.Column),
	}, nil
}

func (h *HTTPEndpoint) SaveMerged(ctx context.Context, r *http.Request) (any, error) {
	handle := strings.TrimSpace(r.URL.Query().Get("cache_key"))
	if handle == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("cache_key is required"))
	}

	result, err := h.uc.PromoteMerge(ctx, handle)
	if err != nil {
		return nil, err
	}

	return SaveMergedResponse{
		FileName: result.FileName,
		ID:       result.DatasetID,
		Size:     result.Size,
	}, nil
}

func (h *HTTPEndpoint) Discard(ctx context.Context, r *http.Request) (any, error) {
	handle := strings.TrimSpace(pkgrouter.GetParam(ctx, "handle"))
	if err := h.uc.DiscardMerge(ctx, handle); err != nil {
		return nil, err
	}

	return DiscardResponse{CacheKey: handle}, nil
}

func (h *HTTPEndpoint) Delete(ctx context.Context, r *http.Request) (any, error) {
	id, err := parseID("id", pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeleteDataset(ctx, id); err != nil {
		return nil, err
	}

	return DeleteResponse{ID: id}, nil
}

func parseID(name, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, pkgerror.NewInvalidInput(fmt.Errorf("%s is required", name))
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, pkgerror.NewInvalidInput(fmt.Errorf("invalid %s", name))
	}

	return id, nil
}

func (h *HTTPEndpoint) readUploadForm(r *http.Request) (usecase.UploadInput, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.EqualFold(mediaType, "multipart/form-data") {
		return usecase.UploadInput{}, pkgerror.NewInvalidFormat(errExpectedMultipart)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return usecase.UploadInput{}, pkgerror.NewInvalidFormat(errExpectedMultipart)
	}

	limit := h.maxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}

	var in usecase.UploadInput
	var hasFile bool
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return usecase.UploadInput{}, pkgerror.NewInvalidFormat(errMalformedMultipart)
		}

		switch part.FormName() {
		case "file":
			in.FileName = part.FileName()
			in.Body, err = readLimited(part, limit)
			hasFile = true
		case "uploaded_by":
			var v []byte
			v, err = readLimited(part, 1<<10)
			in.UploadedBy = string(v)
		case "description":
			var v []byte
			v, err = readLimited(part, 64<<10)
			in.Description = string(v)
		}
		_ = part.Close()
		if err != nil {
			return usecase.UploadInput{}, err
		}
	}

	if !hasFile {
		return usecase.UploadInput{}, pkgerror.NewInvalidInput(errors.New("file part is required"))
	}

	return in, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, pkgerror.NewInvalidFormat(errMalformedMultipart)
	}
	if int64(len(data)) > limit {
		return nil, pkgerror.NewInvalidInput(fmt.Errorf("field exceeds %d bytes", limit))
	}
	return data, nil
}

func toHTTPFile(rec entity.Dataset) File {
	return File{
		ID:          rec.ID,
		Name:        rec.Name,
		Format:      rec.Format,
		Size:        rec.Size,
		Description: rec.Description,
		UploadedBy:  rec.UploadedBy,
		Status:      rec.Status,
		UploadTime:  rec.UploadTime,
	}
}
