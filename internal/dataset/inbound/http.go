package inbound

import (
	"context"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/dataset/usecase"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgrouter"
)

type uc interface {
	Upload(ctx context.Context, in usecase.UploadInput) (usecase.UploadResult, error)
	ListFiles(ctx context.Context) ([]entity.Dataset, error)
	ComputeMerge(ctx context.Context, in usecase.MergeInput) (usecase.MergeResult, error)
	PromoteMerge(ctx context.Context, handle string) (usecase.PromoteResult, error)
	DiscardMerge(ctx context.Context, handle string) error
	DeleteDataset(ctx context.Context, id int64) error
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, maxUploadBytes int64) {
	end := &HTTPEndpoint{uc: uc, maxUploadBytes: maxUploadBytes}

	r.POST("/upload", end.Upload)
	r.GET("/files", end.Files)

	r.GET("/merge", end.Merge)             // ?file1_id=&file2_id=&join_column=&join_type=
	r.POST("/save_merged", end.SaveMerged) // ?cache_key=
	r.DELETE("/merge/:handle", end.Discard)
	r.DELETE("/delete/:id", end.Delete)
}
