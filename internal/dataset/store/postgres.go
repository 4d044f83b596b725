package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// uniqueViolation is raised by datasets_live_name_idx.
const uniqueViolation pq.ErrorCode = "23505"

const datasetColumns = `id, name, format, size, description, uploaded_by, file_path, status, upload_time`

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// Migrate applies the embedded schema migrations that are not applied yet.
func Migrate(db *sql.DB) error {
	src, err := migrationSource()
	if err != nil {
		return err
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", dbDriver)
	if err != nil {
		return err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	}
	return err
}

func migrationSource() (source.Driver, error) {
	return iofs.New(migrationsFS, "migrations")
}

// PostgresIndex is the Metadata Index backed by the datasets table.
type PostgresIndex struct {
	db *sql.DB
}

func NewPostgresIndex(db *sql.DB) *PostgresIndex {
	return &PostgresIndex{db: db}
}

func (s *PostgresIndex) Insert(ctx context.Context, rec entity.Dataset) (int64, error) {
	const query = `INSERT INTO datasets (name, format, size, description, uploaded_by, file_path, status)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.Name, string(rec.Format), rec.Size, rec.Description, rec.UploadedBy, rec.Path, string(rec.Status),
	).Scan(&id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return 0, fmt.Errorf("insert dataset %q: %w", rec.Name, pkgerror.ErrConflict)
	}
	if err != nil {
		return 0, fmt.Errorf("insert dataset %q: %w", rec.Name, err)
	}

	return id, nil
}

func (s *PostgresIndex) Get(ctx context.Context, id int64) (entity.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = $1`

	rec, err := scanDataset(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}
	if err != nil {
		return entity.Dataset{}, fmt.Errorf("get dataset %d: %w", id, err)
	}

	return rec, nil
}

func (s *PostgresIndex) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset %d: %w", id, err)
	}
	if n == 0 {
		return pkgerror.ErrNotFound
	}

	return nil
}

func (s *PostgresIndex) ListActive(ctx context.Context) ([]entity.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE status <> $1 ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, string(entity.DatasetStatusDeleted))
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	//nolint:errcheck // close error is superseded by rows.Err
	defer rows.Close()

	var out []entity.Dataset
	for rows.Next() {
		rec, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (entity.Dataset, error) {
	var (
		rec    entity.Dataset
		format string
		status string
	)
	err := row.Scan(&rec.ID, &rec.Name, &format, &rec.Size, &rec.Description, &rec.UploadedBy, &rec.Path, &status, &rec.UploadTime)
	if err != nil {
		return entity.Dataset{}, err
	}

	rec.Format = entity.Format(format)
	rec.Status = entity.DatasetStatus(status)
	rec.UploadTime = rec.UploadTime.UTC()

	return rec, nil
}
