package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RawEmail is one fetched message kept verbatim so extraction can be
// re-run later with a better prompt or parser.
type RawEmail struct {
	MessageID   string    `json:"message_id"`
	ReceivedAt  time.Time `json:"received_at"`
	SenderEmail string    `json:"sender_email"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
}

// SaveRawEmail stores the message, keyed by message id. It reports whether
// the row was newly inserted; false means the message was already seen and
// the caller should skip it.
func SaveRawEmail(ctx context.Context, db *sql.DB, e RawEmail) (added bool, err error) {
	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO raw_emails (message_id, received_at, sender_email, subject, body)
VALUES (?, ?, ?, ?, ?);`,
		e.MessageID, e.ReceivedAt.UTC().Format(time.RFC3339), e.SenderEmail, e.Subject, e.Body,
	)
	if err != nil {
		return false, fmt.Errorf("insert raw email: %w", err)
	}

	// RowsAffected is read off this statement's own execution. A separate
	// SELECT changes() can observe another connection's statement when
	// callers write concurrently.
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert raw email: %w", err)
	}
	return n > 0, nil
}

// GetRawEmail loads one stored message by id.
func GetRawEmail(ctx context.Context, db *sql.DB, messageID string) (RawEmail, error) {
	var e RawEmail
	var received string
	err := db.QueryRowContext(ctx, `
SELECT message_id, received_at, sender_email, subject, body
FROM raw_emails
WHERE message_id = ?;`, messageID).Scan(&e.MessageID, &received, &e.SenderEmail, &e.Subject, &e.Body)
	if err != nil {
		return RawEmail{}, err
	}
	e.ReceivedAt, _ = time.Parse(time.RFC3339, received)
	return e, nil
}
