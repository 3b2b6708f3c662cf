package ctxutil

import (
	"context"
	"time"

	"github.com/sekolahku/poin-api/internal/models"
)

type key int

const (
	keyActor key = iota
	keyOpName
)

func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, keyActor, a)
}

func Actor(ctx context.Context) (models.Actor, bool) {
	v := ctx.Value(keyActor)
	if v == nil {
		return models.Actor{}, false
	}
	a, ok := v.(models.Actor)
	return a, ok
}

// WithOp tags the context with an operation name for logs.
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout caps DB work at DefaultDBTimeout, or at whatever is left
// of the parent deadline if that is shorter.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
