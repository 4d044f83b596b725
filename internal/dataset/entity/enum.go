package entity

import "strings"

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a declared format or file extension (with or without the
// leading dot) to a Format. The second result is false for anything outside
// the supported set.
func ParseFormat(value string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")) {
	case string(FormatCSV):
		return FormatCSV, true
	case string(FormatXLSX):
		return FormatXLSX, true
	default:
		return "", false
	}
}

type DatasetStatus string

const (
	DatasetStatusActive  DatasetStatus = "active"
	DatasetStatusMerged  DatasetStatus = "merged"
	DatasetStatusDeleted DatasetStatus = "deleted"
)

type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinOuter JoinType = "outer"
)

// ParseJoinType accepts the four relational join kinds, case-insensitively.
func ParseJoinType(value string) (JoinType, bool) {
	switch JoinType(strings.ToLower(strings.TrimSpace(value))) {
	case JoinInner:
		return JoinInner, true
	case JoinLeft:
		return JoinLeft, true
	case JoinRight:
		return JoinRight, true
	case JoinOuter:
		return JoinOuter, true
	default:
		return "", false
	}
}
