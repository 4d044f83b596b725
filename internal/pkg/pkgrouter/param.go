package pkgrouter

import (
	"context"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// GetParam reads a trimmed path parameter stored in ctx by httprouter.
func GetParam(ctx context.Context, key string) string {
	return strings.TrimSpace(httprouter.ParamsFromContext(ctx).ByName(key))
}
