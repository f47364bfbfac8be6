package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "history.db") + "?_pragma=busy_timeout(5000)"
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "h.db")
	for i := 0; i < 2; i++ {
		db, err := Open(context.Background(), Config{DSN: dsn}, nil)
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, db.DriverName())
		assert.Equal(t, dialect.SQLite, db.Dialect())
		require.NoError(t, db.HealthCheck(context.Background(), time.Second))
		db.Close()
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}

func TestHistoryAppendAndRecent(t *testing.T) {
	db := openTestDB(t)
	repo := NewHistoryRepository(db, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, status := range []string{"completed", "completed_with_warning", "insufficient_text"} {
		_, err := repo.Append(ctx, HistoryEntry{
			JobID:          "job-" + status,
			SourceFile:     "letter.pdf",
			FileType:       "pdf",
			SourceFormat:   "pdf",
			Status:         status,
			IsReferral:     i == 0,
			Confidence:     0.98,
			Score:          49,
			CharacterCount: 1200,
			WordCount:      200,
			Pages:          2,
			PatientName:    "Jane Doe",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "insufficient_text", got[0].Status)
	assert.Equal(t, "completed_with_warning", got[1].Status)
	assert.Equal(t, base.Add(2*time.Minute), got[0].CreatedAt)
	assert.NotEmpty(t, got[0].ID)

	all, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	first := all[2]
	assert.True(t, first.IsReferral)
	assert.Equal(t, 0.98, first.Confidence)
	assert.Equal(t, 49, first.Score)
	assert.Equal(t, 2, first.Pages)
	assert.Equal(t, "Jane Doe", first.PatientName)
}

func TestHistoryAppendFillsIDAndTime(t *testing.T) {
	db := openTestDB(t)
	repo := NewHistoryRepository(db, nil).(*historyRepo)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 600000000, time.FixedZone("EST", -5*3600))
	repo.now = func() time.Time { return fixed }

	e, err := repo.Append(context.Background(), HistoryEntry{JobID: "j", SourceFile: "a.txt", FileType: "txt", Status: "failed", ErrorMessage: "boom"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, time.UTC, e.CreatedAt.Location())
	assert.True(t, fixed.Equal(e.CreatedAt))

	got, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0].ErrorMessage)
	assert.True(t, fixed.Equal(got[0].CreatedAt))
}

func TestHistoryDuplicateIDIsDatabaseError(t *testing.T) {
	db := openTestDB(t)
	repo := NewHistoryRepository(db, nil)

	e := HistoryEntry{ID: "fixed", JobID: "j", SourceFile: "a.txt", FileType: "txt", Status: "completed"}
	_, err := repo.Append(context.Background(), e)
	require.NoError(t, err)
	_, err = repo.Append(context.Background(), e)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDatabase))
}
