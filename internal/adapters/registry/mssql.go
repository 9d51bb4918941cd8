package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/police-portal/platform/internal/shared/config"
)

// MSSQLRegistry reads civil records from the national registry, a
// legacy SQL Server system exposed read-only to the portal.
type MSSQLRegistry struct {
	db          *sql.DB
	personTable string
}

// Connect opens a connection to the civil registry database
func Connect(ctx context.Context, cfg config.RegistryConfig) (*MSSQLRegistry, error) {
	db, err := sql.Open("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping registry database: %w", err)
	}

	return &MSSQLRegistry{
		db:          db,
		personTable: cfg.PersonTable,
	}, nil
}

// Lookup fetches the civil record for a national ID
func (r *MSSQLRegistry) Lookup(ctx context.Context, nationalID string) (*Person, error) {
	query := fmt.Sprintf(`
		SELECT NationalID, FirstName, LastName, DateOfBirth, Deceased
		FROM %s
		WHERE NationalID = @p1`, r.personTable)

	person := &Person{}
	err := r.db.QueryRowContext(ctx, query, nationalID).Scan(
		&person.NationalID, &person.FirstName, &person.LastName,
		&person.DateOfBirth, &person.Deceased,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query civil registry: %w", err)
	}

	return person, nil
}

// Health checks registry connectivity
func (r *MSSQLRegistry) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the registry connection
func (r *MSSQLRegistry) Close() error {
	return r.db.Close()
}

// Ensure MSSQLRegistry implements Registry
var _ Registry = (*MSSQLRegistry)(nil)
