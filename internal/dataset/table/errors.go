package table

import "errors"

var (
	// ErrSchemaMismatch reports a join column absent from one side, or a table
	// whose headers collide after normalization.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrUnsupportedFormat reports a declared format other than csv or xlsx.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnsupportedJoin reports a join type other than inner, left, right, outer.
	ErrUnsupportedJoin = errors.New("unsupported join type")

	// ErrParse reports a blob that cannot be read as its declared format.
	ErrParse = errors.New("parse error")

	// ErrCorruptPayload reports an encoded table that fails shape validation.
	ErrCorruptPayload = errors.New("corrupt table payload")
)
