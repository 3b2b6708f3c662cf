package notify

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/sekolahku/poin-api/internal/ctxutil"
	"github.com/sekolahku/poin-api/internal/db"
	"github.com/sekolahku/poin-api/internal/metrics"
	"github.com/sekolahku/poin-api/internal/models"
)

// Notifier persists short messages for recipients to poll later.
// Delivery is at-least-once per recipient and never fails the caller:
// a crash mid-loop loses the remaining inserts, which is accepted.
type Notifier struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func New(database *sql.DB, log *zap.SugaredLogger) *Notifier {
	return &Notifier{db: database, log: log}
}

// Target is either one user or everybody holding a role.
type Target struct {
	UserID int64
	Role   models.Role
}

type Message struct {
	Target Target
	Title  string
	Text   string
}

func (n *Notifier) Send(ctx context.Context, msgs ...Message) {
	for _, m := range msgs {
		if m.Target.Role != "" {
			ids, err := db.ListUserIDsByRole(ctx, n.db, m.Target.Role)
			if err != nil {
				n.drop(ctx, err, m)
				continue
			}
			for _, id := range ids {
				n.insert(ctx, id, m)
			}
			continue
		}
		if m.Target.UserID != 0 {
			n.insert(ctx, m.Target.UserID, m)
		}
	}
}

func (n *Notifier) insert(ctx context.Context, userID int64, m Message) {
	if err := db.InsertNotification(ctx, n.db, userID, m.Title, m.Text); err != nil {
		n.drop(ctx, err, m)
	}
}

func (n *Notifier) drop(ctx context.Context, err error, m Message) {
	metrics.NotifyFailures.Inc()
	fields := []any{"title", m.Title, "err", err}
	if op, ok := ctxutil.Op(ctx); ok {
		fields = append(fields, "op", op)
	}
	n.log.Warnw("notification dropped", fields...)
}
