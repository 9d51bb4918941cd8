package suspect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	casedomain "github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository persists persons, suspect candidates and wanted records
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new suspect repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePerson persists a person record
func (r *Repository) CreatePerson(ctx context.Context, p *Person) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO persons (id, first_name, last_name, national_id, date_of_birth, description, created_by, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`,
		p.ID, p.FirstName, p.LastName, p.NationalID, p.DateOfBirth, p.Description, p.CreatedBy, p.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Validation("a person with this national ID already exists", nil)
		}
		return errors.Wrap(err, "failed to save person")
	}
	return nil
}

// GetPerson fetches a person by ID
func (r *Repository) GetPerson(ctx context.Context, id types.ID) (*Person, error) {
	p := &Person{}
	var nationalID *string
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, national_id, date_of_birth, description, created_by, created_at
		FROM persons WHERE id = $1`, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &nationalID, &p.DateOfBirth, &p.Description, &p.CreatedBy, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("person", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find person")
	}
	if nationalID != nil {
		p.NationalID = *nationalID
	}
	return p, nil
}

// PersonExists reports whether the person record exists
func (r *Repository) PersonExists(ctx context.Context, id types.ID) (bool, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM persons WHERE id = $1`, id).Scan(&count); err != nil {
		return false, errors.Wrap(err, "failed to check person")
	}
	return count > 0, nil
}

// ListPersons lists persons, optionally filtered by a name search
func (r *Repository) ListPersons(ctx context.Context, search string, limit, offset int) ([]*Person, error) {
	var conditions []string
	var args []any
	argNum := 1

	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, first_name, last_name, national_id, date_of_birth, description, created_by, created_at
		FROM persons
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list persons")
	}
	defer rows.Close()

	var persons []*Person
	for rows.Next() {
		p := &Person{}
		var nationalID *string
		err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &nationalID, &p.DateOfBirth, &p.Description, &p.CreatedBy, &p.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan person")
		}
		if nationalID != nil {
			p.NationalID = *nationalID
		}
		persons = append(persons, p)
	}
	return persons, nil
}

const candidateColumns = `id, case_id, person_id, proposed_by, rationale, status,
	sergeant_message, reviewed_by, decided_at, created_at, updated_at`

func scanCandidate(row interface{ Scan(...any) error }) (*Candidate, error) {
	c := &Candidate{}
	err := row.Scan(&c.ID, &c.CaseID, &c.PersonID, &c.ProposedBy, &c.Rationale, &c.Status,
		&c.SergeantMessage, &c.ReviewedBy, &c.DecidedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ProposeCandidates persists new person records and the candidates
// referencing them in one transaction, so a proposal naming several
// suspects lands whole or not at all.
func (r *Repository) ProposeCandidates(ctx context.Context, newPersons []*Person, candidates []*Candidate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	for _, p := range newPersons {
		_, err = tx.Exec(ctx, `
			INSERT INTO persons (id, first_name, last_name, national_id, date_of_birth, description, created_by, created_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`,
			p.ID, p.FirstName, p.LastName, p.NationalID, p.DateOfBirth, p.Description, p.CreatedBy, p.CreatedAt,
		)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				return errors.Validation("a person with this national ID already exists", nil)
			}
			return errors.Wrap(err, "failed to save person")
		}
	}

	for _, c := range candidates {
		_, err = tx.Exec(ctx, `
			INSERT INTO suspect_candidates (id, case_id, person_id, proposed_by, rationale, status,
				sergeant_message, reviewed_by, decided_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID, c.CaseID, c.PersonID, c.ProposedBy, c.Rationale, c.Status,
			c.SergeantMessage, c.ReviewedBy, c.DecidedAt, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to save candidate")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// GetCandidate fetches a suspect proposal by ID
func (r *Repository) GetCandidate(ctx context.Context, id types.ID) (*Candidate, error) {
	query := fmt.Sprintf(`SELECT %s FROM suspect_candidates WHERE id = $1`, candidateColumns)

	c, err := scanCandidate(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("candidate", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find candidate")
	}
	return c, nil
}

// ListCandidates returns a case's suspect proposals
func (r *Repository) ListCandidates(ctx context.Context, caseID types.ID) ([]*Candidate, error) {
	query := fmt.Sprintf(`SELECT %s FROM suspect_candidates WHERE case_id = $1 ORDER BY created_at`, candidateColumns)

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list candidates")
	}
	defer rows.Close()

	var candidates []*Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan candidate")
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// DecideCandidateTx locks the candidate and its case, applies fn, and
// persists the decision. An approval opens the wanted record in the
// same transaction, with the degree snapshotted from the locked case.
func (r *Repository) DecideCandidateTx(ctx context.Context, id types.ID, fn func(*Candidate) error) (*Candidate, *WantedRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM suspect_candidates WHERE id = $1 FOR UPDATE`, candidateColumns)
	c, err := scanCandidate(tx.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil, errors.NotFound("candidate", id.String())
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to lock candidate")
	}

	var level casedomain.CrimeLevel
	err = tx.QueryRow(ctx, `SELECT crime_level FROM cases WHERE id = $1 FOR UPDATE`, c.CaseID).Scan(&level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to lock case")
	}

	if err := fn(c); err != nil {
		return nil, nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE suspect_candidates
		SET status = $2, sergeant_message = $3, reviewed_by = $4, decided_at = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, c.Status, c.SergeantMessage, c.ReviewedBy, c.DecidedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to update candidate")
	}

	var record *WantedRecord
	if c.Status == CandidateApproved {
		now := time.Now().UTC()
		record = &WantedRecord{
			ID:              types.NewID(),
			PersonID:        c.PersonID,
			CaseID:          c.CaseID,
			Degree:          level.Degree(),
			Status:          WantedStatusWanted,
			WantedSince:     now,
			StatusChangedAt: now,
		}
		record, err = upsertWanted(ctx, tx, record)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "failed to commit transaction")
	}
	return c, record, nil
}

// upsertWanted records a wanted entry within tx. A person already
// wanted on the case keeps their original record and timer.
func upsertWanted(ctx context.Context, tx pgx.Tx, w *WantedRecord) (*WantedRecord, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO wanted_records (id, person_id, case_id, degree, status, wanted_since, status_changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (person_id, case_id) DO NOTHING
		RETURNING id, wanted_since`,
		w.ID, w.PersonID, w.CaseID, w.Degree, w.Status, w.WantedSince, w.StatusChangedAt,
	).Scan(&w.ID, &w.WantedSince)

	if err == nil {
		return w, nil
	}
	if err != pgx.ErrNoRows {
		return nil, errors.Wrap(err, "failed to save wanted record")
	}

	existing := &WantedRecord{}
	err = tx.QueryRow(ctx, `
		SELECT id, person_id, case_id, degree, status, wanted_since, status_changed_at
		FROM wanted_records
		WHERE person_id = $1 AND case_id = $2`,
		w.PersonID, w.CaseID,
	).Scan(&existing.ID, &existing.PersonID, &existing.CaseID, &existing.Degree, &existing.Status, &existing.WantedSince, &existing.StatusChangedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load existing wanted record")
	}
	return existing, nil
}

// UpdateWantedTx locks a wanted record, applies fn, and persists it
func (r *Repository) UpdateWantedTx(ctx context.Context, id types.ID, fn func(*WantedRecord) error) (*WantedRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	w := &WantedRecord{}
	err = tx.QueryRow(ctx, `
		SELECT id, person_id, case_id, degree, status, wanted_since, status_changed_at
		FROM wanted_records
		WHERE id = $1
		FOR UPDATE`, id).Scan(
		&w.ID, &w.PersonID, &w.CaseID, &w.Degree, &w.Status, &w.WantedSince, &w.StatusChangedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("wanted record", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock wanted record")
	}

	if err := fn(w); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE wanted_records SET status = $2, status_changed_at = $3 WHERE id = $1`,
		w.ID, w.Status, w.StatusChangedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update wanted record")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return w, nil
}

// ListWantedByPerson returns every wanted record for a person
func (r *Repository) ListWantedByPerson(ctx context.Context, personID types.ID) ([]*WantedRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, person_id, case_id, degree, status, wanted_since, status_changed_at
		FROM wanted_records
		WHERE person_id = $1
		ORDER BY wanted_since`, personID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wanted records")
	}
	defer rows.Close()

	var records []*WantedRecord
	for rows.Next() {
		w := &WantedRecord{}
		err := rows.Scan(&w.ID, &w.PersonID, &w.CaseID, &w.Degree, &w.Status, &w.WantedSince, &w.StatusChangedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan wanted record")
		}
		records = append(records, w)
	}
	return records, nil
}

// ListRankingRecords flattens every wanted record with its person and
// case liveness for scoring
func (r *Repository) ListRankingRecords(ctx context.Context) ([]RankingRecord, error) {
	liveStatuses := make([]string, len(casedomain.ActiveWorkflowStatuses))
	for i, s := range casedomain.ActiveWorkflowStatuses {
		liveStatuses[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT w.person_id, p.first_name || ' ' || p.last_name,
			w.degree, w.status, w.wanted_since,
			c.status = ANY($1)
		FROM wanted_records w
		JOIN persons p ON p.id = w.person_id
		JOIN cases c ON c.id = w.case_id`, liveStatuses)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ranking records")
	}
	defer rows.Close()

	var records []RankingRecord
	for rows.Next() {
		var rec RankingRecord
		err := rows.Scan(&rec.PersonID, &rec.PersonName, &rec.Degree, &rec.Status, &rec.WantedSince, &rec.CaseLive)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan ranking record")
		}
		records = append(records, rec)
	}
	return records, nil
}
