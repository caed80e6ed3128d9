package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTimeout bounds ctx by timeout unless ctx belongs to a transaction.
// A SessionContext cannot be wrapped without losing the session, so it is
// returned unchanged with a no-op cancel.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}

// IsDuplicateKeyOn reports whether err is a duplicate key violation of the
// named index. An empty index name matches any duplicate key error.
func IsDuplicateKeyOn(err error, index string) bool {
	if !mongo.IsDuplicateKeyError(err) {
		return false
	}
	if index == "" {
		return true
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if mentionsIndex(e.Message, index) {
				return true
			}
		}
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return mentionsIndex(ce.Message, index)
	}

	return mentionsIndex(err.Error(), index)
}

// mentionsIndex looks for the "index: <name> dup key" segment of an E11000
// message, so "_id_" never matches inside a key pattern like "user_id_1".
func mentionsIndex(msg, index string) bool {
	marker := "index: " + index
	i := strings.Index(msg, marker)
	if i < 0 {
		return false
	}
	rest := msg[i+len(marker):]
	return rest == "" || rest[0] == ' '
}
