package jobs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sekolahku/poin-api/internal/db"
	"github.com/sekolahku/poin-api/internal/models"
	"github.com/sekolahku/poin-api/internal/notify"
)

const staleAfterHours = 24

// PendingReminder nudges the BK pool when records sit undecided for more
// than a day. One notification per counselor per run.
func PendingReminder(database *sql.DB, notifier *notify.Notifier) Job {
	return func(ctx context.Context) error {
		n, err := db.CountStalePending(ctx, database, staleAfterHours)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		notifier.Send(ctx, notify.Message{
			Target: notify.Target{Role: models.RoleBK},
			Title:  "Catatan menunggu terlalu lama",
			Text:   fmt.Sprintf("%d catatan belum diputuskan lebih dari %d jam", n, staleAfterHours),
		})
		return nil
	}
}
