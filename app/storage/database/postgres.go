package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // also imports "github.com/lib/pq"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"lootexchange/app/models"
	"lootexchange/app/storage/migrations"
	"lootexchange/pkg/uuid"
)

const defaultListLimit = 100

type Postgres struct {
	DB *sqlx.DB
}

func Connect(cfg Config) (*Postgres, error) {
	connectionString := cfg.DBConnectionString()
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to the database")
	}

	// auto-migrate the db
	if err = migrateDB(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to migrate the database")
	}

	pg := &Postgres{DB: db}
	return pg, nil
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}

func (p *Postgres) CreateListing(ctx context.Context, listing *NewListing) (*Listing, error) {
	result := &Listing{
		Base: Base{
			ID:        uuid.NewUUID(),
			CreatedAt: time.Now().UTC(),
		},
		NewListing: *listing,
	}

	_, err := p.DB.NamedExecContext(
		ctx,
		`INSERT INTO listings (id, token_id, collection, signer, requested_by, price, expiration_time, status, steps, sell_order, created_at)
			VALUES (:id, :token_id, :collection, :signer, :requested_by, :price, :expiration_time, :status, :steps, :sell_order, :created_at);`,
		result,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert a listing")
	}
	return result, nil
}

func (p *Postgres) UpdateListing(ctx context.Context, listing *Listing) error {
	now := time.Now().UTC()
	listing.UpdatedAt = &now
	_, err := p.DB.NamedExecContext(
		ctx,
		"UPDATE listings SET status = :status, steps = :steps, sell_order = :sell_order, updated_at = :updated_at WHERE id = :id AND deleted_at IS NULL;",
		listing,
	)
	return errors.Wrap(err, "failed to update a listing")
}

func (p *Postgres) CancelPendingListing(ctx context.Context, listing *Listing) (bool, error) {
	now := time.Now().UTC()
	listing.UpdatedAt = &now
	result, err := p.DB.ExecContext(
		ctx,
		"UPDATE listings SET status = $1, steps = $2, updated_at = $3 WHERE id = $4 AND status = $5 AND deleted_at IS NULL;",
		listing.Status, listing.Steps, listing.UpdatedAt, listing.ID, models.ListingStatusPending,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to cancel a listing")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to check the cancelled listing")
	}
	return affected > 0, nil
}

func (p *Postgres) GetListing(ctx context.Context, id string) (*Listing, error) {
	result := new(Listing)
	if err := p.DB.GetContext(
		ctx,
		result,
		"SELECT * FROM listings WHERE id = $1 AND deleted_at IS NULL LIMIT 1;",
		id,
	); err != nil {
		return nil, errors.Wrap(err, "failed to select a listing")
	}
	return result, nil
}

func (p *Postgres) ListListings(ctx context.Context, filter *ListingFilter) ([]*Listing, uint64, error) {
	limit := uint64(defaultListLimit)
	if filter.Limit != nil {
		limit = *filter.Limit
	}

	query, args, err := sqlx.Named(
		`SELECT * FROM listings
			WHERE LOWER(requested_by) = LOWER(:requested_by) AND (:status = '' OR status = :status) AND deleted_at IS NULL
			ORDER BY created_at DESC OFFSET :skip LIMIT :limit;`,
		map[string]interface{}{
			"requested_by": filter.RequestedBy,
			"status":       filter.Status,
			"skip":         filter.Skip,
			"limit":        limit,
		},
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to bind a listings query")
	}

	var result []*Listing
	if err := p.DB.SelectContext(ctx, &result, p.DB.Rebind(query), args...); err != nil {
		return nil, 0, errors.Wrap(err, "failed to select listings")
	}

	var total uint64
	if err := p.DB.GetContext(
		ctx,
		&total,
		"SELECT COUNT(*) FROM listings WHERE LOWER(requested_by) = LOWER($1) AND ($2 = '' OR status = $2) AND deleted_at IS NULL;",
		filter.RequestedBy, filter.Status,
	); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count listings")
	}
	return result, total, nil
}

// FailPendingListings fails the listings a previous process left running.
// The step each one stopped at gets the message as its error.
func (p *Postgres) FailPendingListings(ctx context.Context, message string) ([]*Listing, error) {
	tx, err := p.DB.Beginx()
	if err != nil {
		return nil, errors.Wrap(err, "failed to start a db transaction")
	}

	var pending []*Listing
	if err := tx.SelectContext(
		ctx,
		&pending,
		"SELECT * FROM listings WHERE status = $1 AND deleted_at IS NULL FOR UPDATE;",
		models.ListingStatusPending,
	); err != nil {
		err = errors.Wrap(err, "failed to select pending listings")
		rlbErr := errors.Wrap(tx.Rollback(), "failed to rollback the db transaction")
		return nil, multierr.Append(err, rlbErr)
	}

	now := time.Now().UTC()
	for _, l := range pending {
		if err := interruptListing(l, message); err != nil {
			rlbErr := errors.Wrap(tx.Rollback(), "failed to rollback the db transaction")
			return nil, multierr.Append(err, rlbErr)
		}
		l.UpdatedAt = &now

		if _, err := tx.NamedExecContext(
			ctx,
			"UPDATE listings SET status = :status, steps = :steps, updated_at = :updated_at WHERE id = :id;",
			l,
		); err != nil {
			err = errors.Wrap(err, "failed to fail a listing")
			rlbErr := errors.Wrap(tx.Rollback(), "failed to rollback the db transaction")
			return nil, multierr.Append(err, rlbErr)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit the db transaction")
	}
	return pending, nil
}

func interruptListing(l *Listing, message string) error {
	var steps models.Steps
	if err := l.Steps.Unmarshal(&steps); err != nil {
		return errors.Wrapf(err, "failed to unmarshal steps of listing %s", l.ID)
	}
	steps.Interrupt(message)

	data, err := json.Marshal(steps)
	if err != nil {
		return errors.Wrap(err, "failed to marshal listing steps")
	}
	l.Steps = data
	l.Status = models.ListingStatusFailed
	return nil
}

func migrateDB(cfg Config) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return errors.WithMessage(err, "failed to initialize a migrations source")
	}

	connectionString := cfg.DBConnectionStringForMigration()
	migration, err := migrate.NewWithSourceInstance("iofs", source, connectionString)
	if err != nil {
		return errors.WithMessage(err, "failed to initialize a migration instance")
	}

	err = migration.Up()
	if err == migrate.ErrNoChange { // "no change" is not an error
		err = nil
	}
	return errors.WithMessage(err, "failed to execute migrations")
}
