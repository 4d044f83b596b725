package usecase

import (
	"time"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/dataset/table"
)

type MergeInput struct {
	LeftID  int64
	RightID int64
	Spec    entity.JoinSpec
}

type MergeResult struct {
	Handle    string
	Spec      entity.JoinSpec
	Columns   []string
	Preview   []table.Record
	RowCount  int
	ExpiresAt time.Time
}

type PromoteResult struct {
	FileName  string
	DatasetID int64
	Size      int64
}

type UploadInput struct {
	FileName    string
	Body        []byte
	UploadedBy  string
	Description string
}

type UploadResult struct {
	DatasetID int64
	FileName  string
	Format    entity.Format
	Size      int64
}
