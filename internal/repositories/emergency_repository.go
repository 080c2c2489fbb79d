package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"careline-service/internal/domain"
)

var ErrEmergencyNotFound = errors.New("emergency not found")

// EmergencyRepository persists emergencies together with their frozen
// resolver set and the resolution votes recorded so far.
type EmergencyRepository interface {
	CreateEmergency(ctx context.Context, emergency domain.Emergency) (domain.Emergency, error)
	GetEmergency(ctx context.Context, emergencyID int) (domain.Emergency, error)
	AddResolution(ctx context.Context, emergencyID int, supervisorID int) (bool, error)
	CountOpenOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// EmergencyRepo is a sqlx implementation of EmergencyRepository.
type EmergencyRepo struct {
	db *sqlx.DB
}

// NewEmergencyRepo constructs an EmergencyRepo.
func NewEmergencyRepo(db *sqlx.DB) *EmergencyRepo {
	return &EmergencyRepo{db: db}
}

// CreateEmergency inserts the emergency and its resolver set atomically. The
// resolver rows are written exactly once here and never updated afterwards;
// that is what freezes AllowedToResolve at attachment time.
func (r *EmergencyRepo) CreateEmergency(ctx context.Context, emergency domain.Emergency) (domain.Emergency, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Emergency{}, err
	}
	defer tx.Rollback()

	if err := tx.QueryRowxContext(ctx, `INSERT INTO emergencies (chat_id, type, made_by_user, raised_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, raised_at`, emergency.ChatID, emergency.Type, emergency.MadeByUserID, emergency.RaisedAt).
		Scan(&emergency.ID, &emergency.RaisedAt); err != nil {
		return domain.Emergency{}, err
	}

	for _, supervisorID := range emergency.AllowedToResolve {
		if _, err := tx.ExecContext(ctx, `INSERT INTO emergency_resolvers (emergency_id, supervisor_id) VALUES ($1, $2)`,
			emergency.ID, supervisorID); err != nil {
			return domain.Emergency{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Emergency{}, err
	}
	return emergency, nil
}

// GetEmergency loads an emergency with both supervisor sets.
func (r *EmergencyRepo) GetEmergency(ctx context.Context, emergencyID int) (domain.Emergency, error) {
	var emergency domain.Emergency
	err := r.db.GetContext(ctx, &emergency, `SELECT id, chat_id, type, made_by_user, raised_at
        FROM emergencies WHERE id=$1`, emergencyID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Emergency{}, ErrEmergencyNotFound
	}
	if err != nil {
		return domain.Emergency{}, err
	}

	if err := r.db.SelectContext(ctx, &emergency.AllowedToResolve, `SELECT supervisor_id
        FROM emergency_resolvers WHERE emergency_id=$1 ORDER BY supervisor_id`, emergencyID); err != nil {
		return domain.Emergency{}, err
	}
	if err := r.db.SelectContext(ctx, &emergency.HasResolved, `SELECT supervisor_id
        FROM emergency_resolutions WHERE emergency_id=$1 ORDER BY supervisor_id`, emergencyID); err != nil {
		return domain.Emergency{}, err
	}
	return emergency, nil
}

// AddResolution records a resolution vote. The primary key makes the insert
// a conflict-free set add: two supervisors resolving concurrently both land,
// and a duplicate vote reports false instead of double-counting.
func (r *EmergencyRepo) AddResolution(ctx context.Context, emergencyID int, supervisorID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO emergency_resolutions (emergency_id, supervisor_id)
        VALUES ($1, $2) ON CONFLICT (emergency_id, supervisor_id) DO NOTHING`, emergencyID, supervisorID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountOpenOlderThan counts unresolved emergencies raised before the cutoff.
func (r *EmergencyRepo) CountOpenOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM emergencies e
        WHERE e.raised_at < $1
        AND (SELECT COUNT(*) FROM emergency_resolutions res WHERE res.emergency_id = e.id)
          < (SELECT COUNT(*) FROM emergency_resolvers r WHERE r.emergency_id = e.id)`, cutoff)
	return count, err
}
