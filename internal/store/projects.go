package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ses-engine/internal/domain"
)

// InsertProjectIfNew stores one extracted listing, keyed by
// (message_id, project_index). It reports whether the row was newly
// inserted; re-processing a message is a no-op.
func InsertProjectIfNew(ctx context.Context, db *sql.DB, r domain.ProjectRecord) (added bool, err error) {
	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO projects
  (message_id, project_index, received_at, subject, sender_email,
   description, required_skills, optional_skills, location, unit_price, unit_price_norm)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.MessageID, r.ProjectIndex, r.ReceivedAt.UTC().Format(time.RFC3339), r.Subject, r.SenderEmail,
		r.Description, domain.JoinSkills(r.RequiredSkills), domain.JoinSkills(r.OptionalSkills),
		r.Location, r.UnitPrice, r.UnitPriceNorm,
	)
	if err != nil {
		return false, fmt.Errorf("insert project %s: %w", r.Key(), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert project %s: %w", r.Key(), err)
	}
	return n > 0, nil
}

// ListProjectsOpts bounds and orders a project listing.
type ListProjectsOpts struct {
	// Since drops records received before it; zero means no cutoff.
	Since time.Time
	// Limit caps the result; <= 0 means a server-side default.
	Limit int
}

// ListProjects returns stored records newest first.
func ListProjects(ctx context.Context, db *sql.DB, opts ListProjectsOpts) ([]domain.ProjectRecord, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 500
	}

	where := ""
	args := []any{}
	if !opts.Since.IsZero() {
		where = "WHERE received_at >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339))
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT message_id, project_index, received_at, subject, sender_email,
       description, required_skills, optional_skills, location, unit_price, unit_price_norm
FROM projects
%s
ORDER BY received_at DESC, message_id, project_index
LIMIT ?;`, where)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ListProjectsSince returns records in a recency window oldest first, the
// order the duplicate grouper expects (earliest record seeds the group).
func ListProjectsSince(ctx context.Context, db *sql.DB, since time.Time, limit int) ([]domain.ProjectRecord, error) {
	if limit <= 0 || limit > 5000 {
		limit = 1000
	}

	rows, err := db.QueryContext(ctx, `
SELECT message_id, project_index, received_at, subject, sender_email,
       description, required_skills, optional_skills, location, unit_price, unit_price_norm
FROM projects
WHERE received_at >= ?
ORDER BY received_at ASC, message_id, project_index
LIMIT ?;`, since.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProjects(rows)
}

// CountProjects returns the number of stored records.
func CountProjects(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects;`).Scan(&n)
	return n, err
}

func scanProjects(rows *sql.Rows) ([]domain.ProjectRecord, error) {
	var out []domain.ProjectRecord
	for rows.Next() {
		var r domain.ProjectRecord
		var received, required, optional string
		if err := rows.Scan(
			&r.MessageID,
			&r.ProjectIndex,
			&received,
			&r.Subject,
			&r.SenderEmail,
			&r.Description,
			&required,
			&optional,
			&r.Location,
			&r.UnitPrice,
			&r.UnitPriceNorm,
		); err != nil {
			return nil, err
		}
		r.ReceivedAt, _ = time.Parse(time.RFC3339, received)
		r.RequiredSkills = domain.SplitSkills(required)
		r.OptionalSkills = domain.SplitSkills(optional)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
