package gym

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Lifecycle applies settled subscription invoices to gyms. It is handed to
// billing so payments can activate and extend gyms inside their transaction.
type Lifecycle struct{}

func (Lifecycle) Activate(ctx context.Context, tx *sqlx.Tx, gymID int) (int, bool, error) {
	g, err := Activate(ctx, tx, gymID)
	if errors.Is(err, ErrGymAlreadyActive) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return g.OwnerID, true, nil
}

func (Lifecycle) ExtendExpiry(ctx context.Context, tx *sqlx.Tx, gymID int, today time.Time) (int, time.Time, error) {
	g, err := ExtendExpiry(ctx, tx, gymID, today)
	if err != nil {
		return 0, time.Time{}, err
	}
	return g.OwnerID, g.ExpiryDate, nil
}
