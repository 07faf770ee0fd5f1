package classroom

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carebook-backend/internal/platform/db"
)

type Repository interface {
	ListClasses(ctx context.Context, includeInactive bool) ([]Class, error)
	GetClass(ctx context.Context, classID string) (Class, bool, error)
	SaveClass(ctx context.Context, c Class) error
	StudentsInClass(ctx context.Context, classID string) ([]string, error)
	Enroll(ctx context.Context, classID string, studentIDs []string) error
	Unenroll(ctx context.Context, classID, studentID string) (bool, error)
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
	AddHoliday(ctx context.Context, h Holiday) error
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) ListClasses(ctx context.Context, includeInactive bool) ([]Class, error) {
	q := `SELECT class_id, name, is_active FROM classes`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY class_id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ClassID, &c.Name, &c.IsActive); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetClass(ctx context.Context, classID string) (Class, bool, error) {
	var c Class
	err := s.db.QueryRowContext(ctx, `
	SELECT class_id, name, is_active FROM classes WHERE class_id = ?`, classID,
	).Scan(&c.ClassID, &c.Name, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return Class{}, false, nil
	}
	if err != nil {
		return Class{}, false, err
	}
	return c, true, nil
}

func (s *Store) SaveClass(ctx context.Context, c Class) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO classes (class_id, name, is_active) VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE
	name      = VALUES(name),
	is_active = VALUES(is_active)`, c.ClassID, c.Name, c.IsActive)
	return err
}

func (s *Store) StudentsInClass(ctx context.Context, classID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT student_id FROM class_enrollments
	WHERE class_id = ?
	ORDER BY student_id ASC`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		out = append(out, sid)
	}
	return out, rows.Err()
}

// Enroll は既に在籍している園児を無視する
func (s *Store) Enroll(ctx context.Context, classID string, studentIDs []string) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		for _, sid := range studentIDs {
			if _, err := tx.ExecContext(ctx, `
			INSERT IGNORE INTO class_enrollments (class_id, student_id) VALUES (?, ?)`, classID, sid); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Unenroll(ctx context.Context, classID, studentID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
	DELETE FROM class_enrollments WHERE class_id = ? AND student_id = ?`, classID, studentID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
	SELECT 1 FROM holidays WHERE holiday_on = ? LIMIT 1`, date.Format(DateLayout),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) AddHoliday(ctx context.Context, h Holiday) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO holidays (holiday_on, label) VALUES (?, ?)
	ON DUPLICATE KEY UPDATE label = VALUES(label)`, h.Date.Format(DateLayout), h.Label)
	return err
}
