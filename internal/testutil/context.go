package testutil

import (
	"context"

	"github.com/flexprice/invoicer/internal/types"
)

// SetupContext returns a request scoped context acting as caller
func SetupContext(caller string) context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, caller)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}
