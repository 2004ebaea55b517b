// Package bizcontext carries the authenticated business identity through the
// request context. The core treats it as an opaque identity resolved by the
// HTTP layer.
package bizcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type businessKey struct{}

// WithBusinessID stores the business ID in the context.
func WithBusinessID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, businessKey{}, id)
}

// BusinessIDFromContext returns the business ID from context, if set.
func BusinessIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	switch typed := ctx.Value(businessKey{}).(type) {
	case snowflake.ID:
		return typed, typed != 0
	case int64:
		return snowflake.ID(typed), typed != 0
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
