package inbound

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/dataset/table"
)

type File struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Format      entity.Format        `json:"format"`
	Size        int64                `json:"size"`
	Description string               `json:"description"`
	UploadedBy  string               `json:"uploaded_by"`
	Status      entity.DatasetStatus `json:"status"`
	UploadTime  time.Time            `json:"upload_time"`
}

type FilesResponse []File

func (r FilesResponse) Meta() map[string]any {
	return map[string]any{"total": len(r)}
}

type UploadResponse struct {
	ID       int64         `json:"id"`
	FileName string        `json:"file_name"`
	Format   entity.Format `json:"format"`
	Size     int64         `json:"size"`
}

func (UploadResponse) StatusCode() int {
	return http.StatusCreated
}

func (r UploadResponse) Message() string {
	return fmt.Sprintf("%s uploaded successfully", r.FileName)
}

type MergeResponse struct {
	CacheKey  string         `json:"cache_key"`
	Columns   []string       `json:"columns"`
	Preview   []table.Record `json:"preview"`
	RowCount  int            `json:"row_count"`
	ExpiresAt time.Time      `json:"expires_at"`
	message   string
}

func (r MergeResponse) Message() string {
	return r.message
}

type SaveMergedResponse struct {
	FileName string `json:"file_name"`
	ID       int64  `json:"id"`
	Size     int64  `json:"size"`
}

func (SaveMergedResponse) StatusCode() int {
	return http.StatusCreated
}

func (SaveMergedResponse) Message() string {
	return "Merged file saved successfully"
}

type DiscardResponse struct {
	CacheKey string `json:"cache_key"`
}

func (DiscardResponse) Message() string {
	return "staged merge discarded"
}

type DeleteResponse struct {
	ID int64 `json:"id"`
}

func (r DeleteResponse) Message() string {
	return fmt.Sprintf("File deleted and removed from DB (ID %d)", r.ID)
}
