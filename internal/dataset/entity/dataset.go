package entity

import "time"

// Dataset is a row of the metadata index.
//
// Name is the object store key. Path mirrors Name and is kept as its own
// column for compatibility with existing index rows.
type Dataset struct {
	ID          int64
	Name        string
	Format      Format
	Size        int64
	Description string
	UploadedBy  string
	Path        string
	Status      DatasetStatus
	UploadTime  time.Time
}

// Durable reports whether the record must point at an existing object.
func (d Dataset) Durable() bool {
	return d.Status == DatasetStatusActive || d.Status == DatasetStatusMerged
}
