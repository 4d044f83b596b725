package entity

import "time"

type JoinSpec struct {
	Column string
	Type   JoinType
}

// StagedMerge is a computed join result parked in the staging cache until it
// is promoted, discarded, or expires.
type StagedMerge struct {
	Handle    string
	Payload   []byte
	Lineage   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// OrphanEvent asks the reaper to remove an object that a failed promotion or
// upload could not clean up synchronously.
type OrphanEvent struct {
	EventID    string
	ObjectName string
	Reason     string
}
