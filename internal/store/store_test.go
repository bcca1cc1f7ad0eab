package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ses-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func testRecord(msgID string, idx int, received time.Time) domain.ProjectRecord {
	return domain.ProjectRecord{
		MessageID:      msgID,
		ProjectIndex:   idx,
		ReceivedAt:     received,
		Subject:        "【案件】Java開発",
		SenderEmail:    "sales@example.co.jp",
		Description:    "金融系システムの開発",
		RequiredSkills: []string{"Java", "SQL"},
		OptionalSkills: []string{"AWS"},
		Location:       "東京",
		UnitPrice:      "60万円",
		UnitPriceNorm:  "60万",
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db.Pool))
}

func TestSaveRawEmailDeduplicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	e := RawEmail{
		MessageID:   "<m1@example.com>",
		ReceivedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		SenderEmail: "sales@example.co.jp",
		Subject:     "案件のご紹介",
		Body:        "▼案件A\n単価60万",
	}

	added, err := SaveRawEmail(ctx, db.Pool, e)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = SaveRawEmail(ctx, db.Pool, e)
	require.NoError(t, err)
	assert.False(t, added)

	got, err := GetRawEmail(ctx, db.Pool, e.MessageID)
	require.NoError(t, err)
	assert.Equal(t, e.Body, got.Body)
	assert.Equal(t, e.ReceivedAt, got.ReceivedAt)
}

func TestSaveRawEmailConcurrentAddedFlags(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	received := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Two writers race every id; exactly one of each pair must see
	// added=true, no matter how their statements interleave.
	const ids = 100
	var added atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < ids; i++ {
		for w := 0; w < 2; w++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok, err := SaveRawEmail(ctx, db.Pool, RawEmail{
					MessageID:   fmt.Sprintf("<m%d@example.com>", i),
					ReceivedAt:  received,
					SenderEmail: "sales@example.co.jp",
					Subject:     "案件",
					Body:        "本文",
				})
				assert.NoError(t, err)
				if ok {
					added.Add(1)
				}
			}(i)
		}
	}
	wg.Wait()

	var rows int
	require.NoError(t, db.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_emails;`).Scan(&rows))
	assert.Equal(t, ids, rows)
	assert.Equal(t, int64(rows), added.Load())
}

func TestInsertProjectIfNew(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	r := testRecord("<m1@example.com>", 1, now)
	added, err := InsertProjectIfNew(ctx, db.Pool, r)
	require.NoError(t, err)
	assert.True(t, added)

	// Same (message_id, project_index) is ignored.
	added, err = InsertProjectIfNew(ctx, db.Pool, r)
	require.NoError(t, err)
	assert.False(t, added)

	// A second listing from the same email is a new row.
	r2 := r
	r2.ProjectIndex = 2
	added, err = InsertProjectIfNew(ctx, db.Pool, r2)
	require.NoError(t, err)
	assert.True(t, added)

	n, err := CountProjects(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInsertProjectIfNewConcurrent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	const listings = 50
	var added atomic.Int64
	var wg sync.WaitGroup
	for i := 1; i <= listings; i++ {
		for w := 0; w < 2; w++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok, err := InsertProjectIfNew(ctx, db.Pool, testRecord("<m1@example.com>", i, now))
				assert.NoError(t, err)
				if ok {
					added.Add(1)
				}
			}(i)
		}
	}
	wg.Wait()

	n, err := CountProjects(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, listings, n)
	assert.Equal(t, int64(n), added.Load())
}

func TestListProjectsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	r := testRecord("<m1@example.com>", 1, now)
	_, err := InsertProjectIfNew(ctx, db.Pool, r)
	require.NoError(t, err)

	got, err := ListProjects(ctx, db.Pool, ListProjectsOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r, got[0])
}

func TestListProjectsSinceWindow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := testRecord("<old@example.com>", 1, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	mid := testRecord("<mid@example.com>", 1, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	recent := testRecord("<new@example.com>", 1, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	for _, r := range []domain.ProjectRecord{recent, old, mid} {
		_, err := InsertProjectIfNew(ctx, db.Pool, r)
		require.NoError(t, err)
	}

	got, err := ListProjectsSince(ctx, db.Pool, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first, the order the duplicate grouper seeds from.
	assert.Equal(t, "<mid@example.com>", got[0].MessageID)
	assert.Equal(t, "<new@example.com>", got[1].MessageID)
}
