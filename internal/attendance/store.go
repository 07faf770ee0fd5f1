package attendance

import (
	"context"
	"database/sql"
	"time"

	"carebook-backend/internal/platform/db"
)

// Repository は出欠の保存先。未登録は found=false（エラーではない）。
type Repository interface {
	Get(ctx context.Context, classID string, date time.Time) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) Get(ctx context.Context, classID string, date time.Time) (Record, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT student_id, status, recorded_at
	FROM class_attendances
	WHERE class_id = ? AND attended_on = ?`, classID, date.Format(DateLayout))
	if err != nil {
		return Record{}, false, err
	}
	defer rows.Close()

	rec := Record{ClassID: classID, Date: date, Marks: map[string]Status{}}
	for rows.Next() {
		var r attendanceRow
		if err := rows.Scan(&r.StudentID, &r.Status, &r.RecordedAt); err != nil {
			return Record{}, false, err
		}
		rec.Marks[r.StudentID] = Status(r.Status)
		if r.RecordedAt.After(rec.RecordedAt) {
			rec.RecordedAt = r.RecordedAt.UTC()
		}
	}
	if err := rows.Err(); err != nil {
		return Record{}, false, err
	}
	if len(rec.Marks) == 0 {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// Save: (class_id, attended_on, student_id) の主キーで upsert。
// marks に含まれない園児の行はそのまま残す。
func (s *Store) Save(ctx context.Context, rec Record) error {
	on := rec.Date.Format(DateLayout)
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		for sid, st := range rec.Marks {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO class_attendances (class_id, attended_on, student_id, status, recorded_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
			status      = VALUES(status),
			recorded_at = VALUES(recorded_at)`,
				rec.ClassID, on, sid, string(st), rec.RecordedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}
