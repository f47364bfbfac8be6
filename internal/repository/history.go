package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// HistoryEntry is one processed upload.
type HistoryEntry struct {
	ID                string    `json:"id"`
	JobID             string    `json:"job_id"`
	SourceFile        string    `json:"source_file"`
	FileType          string    `json:"file_type"`
	SourceFormat      string    `json:"source_format"`
	Status            string    `json:"status"`
	IsReferral        bool      `json:"is_referral"`
	Confidence        float64   `json:"confidence"`
	Score             int       `json:"score"`
	CharacterCount    int       `json:"character_count"`
	WordCount         int       `json:"word_count"`
	Pages             int       `json:"pages"`
	PatientName       string    `json:"patient_name,omitempty"`
	ReferralTo        string    `json:"referral_to,omitempty"`
	ValidationWarning string    `json:"validation_warning,omitempty"`
	ErrorMessage      string    `json:"error,omitempty"`
	SHA256            string    `json:"sha256,omitempty"`
	StorageBackend    string    `json:"storage_backend,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type HistoryRepository interface {
	Append(ctx context.Context, e HistoryEntry) (HistoryEntry, error)
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
	Count(ctx context.Context) (int, error)
}

var historyColumns = []string{
	"id", "job_id", "source_file", "file_type", "source_format", "status",
	"is_referral", "confidence", "score", "character_count", "word_count", "pages",
	"patient_name", "referral_to", "validation_warning", "error_message",
	"sha256", "storage_backend", "created_at",
}

type historyRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewHistoryRepository(db *DB, log *slog.Logger) HistoryRepository {
	if log == nil {
		log = slog.Default()
	}
	return &historyRepo{db: db, log: log, now: time.Now}
}

// Append stores e, filling ID and CreatedAt when they are zero.
func (r *historyRepo) Append(ctx context.Context, e HistoryEntry) (HistoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	query, args := entsql.Dialect(r.db.dialect).
		Insert(historyTable).
		Columns(historyColumns...).
		Values(
			e.ID, e.JobID, e.SourceFile, e.FileType, e.SourceFormat, e.Status,
			boolToInt(e.IsReferral), e.Confidence, e.Score, e.CharacterCount, e.WordCount, e.Pages,
			e.PatientName, e.ReferralTo, e.ValidationWarning, e.ErrorMessage,
			e.SHA256, e.StorageBackend, e.CreatedAt.Format(timeLayout),
		).
		Query()

	var res stdsql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		r.log.Error("history append failed", "job_id", e.JobID, "err", err)
		return HistoryEntry{}, common.WrapAppError(common.CodeDatabase, "append history", common.ErrDatabase, err)
	}
	r.log.Info("history appended", "id", e.ID, "job_id", e.JobID, "status", e.Status)
	return e, nil
}

// Recent lists the newest entries first.
func (r *historyRepo) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query, args := entsql.Dialect(r.db.dialect).
		Select(historyColumns...).
		From(entsql.Table(historyTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit).
		Query()

	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, common.WrapAppError(common.CodeDatabase, "list history", common.ErrDatabase, err)
	}
	defer rows.Close()

	out := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e          HistoryEntry
			isReferral int64
			createdAt  string
		)
		if err := rows.Scan(
			&e.ID, &e.JobID, &e.SourceFile, &e.FileType, &e.SourceFormat, &e.Status,
			&isReferral, &e.Confidence, &e.Score, &e.CharacterCount, &e.WordCount, &e.Pages,
			&e.PatientName, &e.ReferralTo, &e.ValidationWarning, &e.ErrorMessage,
			&e.SHA256, &e.StorageBackend, &createdAt,
		); err != nil {
			return nil, common.WrapAppError(common.CodeDatabase, "scan history", common.ErrDatabase, err)
		}
		e.IsReferral = isReferral != 0
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, common.WrapAppError(common.CodeDatabase, "parse created_at", common.ErrDatabase, fmt.Errorf("%q: %w", createdAt, err))
		}
		e.CreatedAt = t
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapAppError(common.CodeDatabase, "iterate history", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *historyRepo) Count(ctx context.Context) (int, error) {
	query, args := entsql.Dialect(r.db.dialect).
		Select(entsql.Count("*")).
		From(entsql.Table(historyTable)).
		Query()

	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return 0, common.WrapAppError(common.CodeDatabase, "count history", common.ErrDatabase, err)
	}
	defer rows.Close()

	n, err := entsql.ScanInt(rows)
	if err != nil {
		return 0, common.WrapAppError(common.CodeDatabase, "count history", common.ErrDatabase, err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
