package dailyrecord

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"carebook-backend/internal/platform/db"
)

const dateLayout = "2006-01-02"

// Repository は連絡帳の永続化層。MySQL 版とメモリ版がある。
//
// Find returns soft-deleted rows too; Exists does not. Both adopt a legacy
// row when the canonical id is not stored yet.
type Repository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Find(ctx context.Context, id string) (DailyRecord, bool, error)
	// GetOrCreate stores rec unless a live record with rec.ID exists, in which
	// case that record is returned with created=false.
	GetOrCreate(ctx context.Context, rec DailyRecord) (DailyRecord, bool, error)
	// Replace writes the staff-editable fields. false means no live row.
	Replace(ctx context.Context, rec DailyRecord) (bool, error)
	SoftDelete(ctx context.Context, id string, at time.Time) (bool, error)
	// SaveReview only ever sets reviewed_by_guardian to true.
	SaveReview(ctx context.Context, id, comment string, at time.Time) (bool, error)
	ListByStudent(ctx context.Context, f ListFilter) ([]DailyRecord, error)
}

type ListFilter struct {
	StudentID      string
	From           *time.Time // 暦日, inclusive
	To             *time.Time // 暦日, inclusive
	Limit          int        // 0 = no limit
	IncludeDeleted bool
}

// legacySlack is added to LIMIT so stale legacy rows dropped after the
// query do not shorten the page.
const legacySlack = 16

const selectCols = `
	id, student_id, class_id, record_date, created_by_staff_id, last_modified_by_staff_id,
	first_course, second_course, dessert, snack, meal_notes,
	nap_taken, nap_start, nap_end, nap_notes,
	bowel_movement, bowel_count, bowel_notes,
	need_diapers, need_wipes, need_change_of_clothes, other_supply_note, general_notes,
	deleted, reviewed_by_guardian, reviewed_at, guardian_comment,
	created_at, last_modified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc rowScanner) (recordRow, error) {
	var r recordRow
	err := sc.Scan(
		&r.ID, &r.StudentID, &r.ClassID, &r.RecordDate, &r.CreatedByStaffID, &r.LastModifiedByStaffID,
		&r.FirstCourse, &r.SecondCourse, &r.Dessert, &r.Snack, &r.MealNotes,
		&r.NapTaken, &r.NapStart, &r.NapEnd, &r.NapNotes,
		&r.BowelMovement, &r.BowelCount, &r.BowelNotes,
		&r.NeedDiapers, &r.NeedWipes, &r.NeedChangeOfClothes, &r.OtherSupplyNote, &r.GeneralNotes,
		&r.Deleted, &r.ReviewedByGuardian, &r.ReviewedAt, &r.GuardianComment,
		&r.CreatedAt, &r.LastModifiedAt,
	)
	return r, err
}

type SQLStore struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLStore(conn *sql.DB, loc *time.Location) *SQLStore {
	return &SQLStore{db: conn, loc: loc}
}

var _ Repository = (*SQLStore)(nil)

// Exists: 削除されていない行があるか。読み取り専用Txで、旧行の付け替えはしない。
func (s *SQLStore) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		ok, err = s.existsTx(ctx, tx, id)
		return err
	})
	return ok, err
}

func (s *SQLStore) existsTx(ctx context.Context, tx db.DBTX, id string) (bool, error) {
	var one int
	if IsLegacyID(id) {
		row, err := scanRecord(tx.QueryRowContext(ctx,
			`SELECT `+selectCols+` FROM daily_records WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		// 正規行か、より新しい旧行があれば古い行
		err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM daily_records
		WHERE id = ? OR (student_id = ? AND record_date = ? AND id LIKE ?
			AND (last_modified_at > ? OR (last_modified_at = ? AND id > ?)))
		LIMIT 1`,
			row.toModel(s.loc).canonicalID(), row.StudentID, row.RecordDate.Format(dateLayout), legacyLike(),
			row.LastModifiedAt, row.LastModifiedAt, row.ID,
		).Scan(&one)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return !row.Deleted, nil
	}

	err := tx.QueryRowContext(ctx, `
	SELECT 1 FROM daily_records
	WHERE id = ? AND deleted = 0 LIMIT 1`, id,
	).Scan(&one)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	// 正規IDが無ければ未移行の旧行を見る
	day, student, ok := ParseID(id, s.loc)
	if !ok {
		return false, nil
	}
	err = tx.QueryRowContext(ctx, `
	SELECT 1 FROM daily_records
	WHERE student_id = ? AND record_date = ? AND id LIKE ? AND deleted = 0
	AND NOT EXISTS (SELECT 1 FROM (SELECT id FROM daily_records WHERE id = ?) c)
	LIMIT 1`,
		student, day.Format(dateLayout), legacyLike(), id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) Find(ctx context.Context, id string) (DailyRecord, bool, error) {
	var (
		rec   DailyRecord
		found bool
	)
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var err error
		rec, found, err = s.findTx(ctx, tx, id, false)
		return err
	})
	return rec, found, err
}

// findTx は正規IDで引き、無ければ同じ (student, date) の旧行を正規IDへ付け替える。
// 付け替えは一度きりで、二回目以降は正規IDで見つかる。
// 旧IDで引いた場合も正規IDで返す。正規行やより新しい旧行があれば見つからない扱い。
func (s *SQLStore) findTx(ctx context.Context, tx db.DBTX, id string, forUpdate bool) (DailyRecord, bool, error) {
	canon := id
	if IsLegacyID(id) {
		row, err := scanRecord(tx.QueryRowContext(ctx,
			`SELECT `+selectCols+` FROM daily_records WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return DailyRecord{}, false, nil
		}
		if err != nil {
			return DailyRecord{}, false, err
		}
		canon = row.toModel(s.loc).canonicalID()
	}

	rec, from, found, err := s.locateTx(ctx, tx, canon, forUpdate)
	if err != nil || !found {
		return DailyRecord{}, false, err
	}
	if IsLegacyID(id) && from != id {
		return DailyRecord{}, false, nil
	}
	return rec, true, nil
}

// locateTx returns the record for canonical id and the id it was stored under
// before this call.
func (s *SQLStore) locateTx(ctx context.Context, tx db.DBTX, id string, forUpdate bool) (DailyRecord, string, bool, error) {
	lock := ""
	if forUpdate {
		lock = " FOR UPDATE"
	}
	row, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+selectCols+` FROM daily_records WHERE id = ?`+lock, id))
	if err == nil {
		return row.toModel(s.loc), id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return DailyRecord{}, "", false, err
	}

	day, student, ok := ParseID(id, s.loc)
	if !ok {
		return DailyRecord{}, "", false, nil
	}
	row, err = scanRecord(tx.QueryRowContext(ctx, `SELECT `+selectCols+`
	FROM daily_records
	WHERE student_id = ? AND record_date = ? AND id LIKE ?
	ORDER BY last_modified_at DESC, id DESC
	LIMIT 1`+lock, student, day.Format(dateLayout), legacyLike()))
	if errors.Is(err, sql.ErrNoRows) {
		return DailyRecord{}, "", false, nil
	}
	if err != nil {
		return DailyRecord{}, "", false, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE daily_records SET id = ? WHERE id = ?`, id, row.ID); err != nil {
		if db.IsDuplicateKey(err) {
			// 他のリクエストが先に正規行を作った
			return DailyRecord{}, "", false, nil
		}
		return DailyRecord{}, "", false, err
	}
	log.Printf("[INFO] adopted legacy daily record %s as %s", row.ID, id)
	from := row.ID
	row.ID = id
	return row.toModel(s.loc), from, true, nil
}

func (s *SQLStore) GetOrCreate(ctx context.Context, rec DailyRecord) (DailyRecord, bool, error) {
	var (
		out     DailyRecord
		created bool
	)
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		cur, found, err := s.findTx(ctx, tx, rec.ID, true)
		if err != nil {
			return err
		}
		switch {
		case found && !cur.Deleted:
			out = cur
			return nil
		case found && cur.Deleted:
			// 論理削除済みの同一IDは初期値で作り直す（IDは変えない）。
			// 保護者の既読欄は戻さない。
			if err := s.reset(ctx, tx, rec); err != nil {
				return err
			}
			rec = rec.withReviewFields(cur)
		default:
			if err := s.insert(ctx, tx, rec); err != nil {
				return err
			}
		}
		out, created = rec, true
		return nil
	})
	if err != nil && db.IsDuplicateKey(err) {
		// 同時作成で負けた側は勝者の行を返す
		cur, found, ferr := s.Find(ctx, rec.ID)
		if ferr != nil {
			return DailyRecord{}, false, ferr
		}
		if found && !cur.Deleted {
			return cur, false, nil
		}
		return DailyRecord{}, false, err
	}
	if err != nil {
		return DailyRecord{}, false, err
	}
	return out, created, nil
}

func (s *SQLStore) insert(ctx context.Context, tx db.DBTX, r DailyRecord) error {
	_, err := tx.ExecContext(ctx, `
	INSERT INTO daily_records (
		id, student_id, class_id, record_date, created_by_staff_id, last_modified_by_staff_id,
		first_course, second_course, dessert, snack, meal_notes,
		nap_taken, nap_start, nap_end, nap_notes,
		bowel_movement, bowel_count, bowel_notes,
		need_diapers, need_wipes, need_change_of_clothes, other_supply_note, general_notes,
		deleted, reviewed_by_guardian, reviewed_at, guardian_comment,
		created_at, last_modified_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, NULL, '', ?, ?)`,
		r.ID, r.StudentID, r.ClassID, r.Date.Format(dateLayout), r.CreatedByStaffID, r.LastModifiedByStaffID,
		string(r.Meals.FirstCourse), string(r.Meals.SecondCourse), string(r.Meals.Dessert), string(r.Meals.Snack), r.MealNotes,
		r.NapTaken, strOrNil(r.NapStart), strOrNil(r.NapEnd), r.NapNotes,
		r.BowelMovement, r.BowelCount, r.BowelNotes,
		r.SuppliesNeeded.Diapers, r.SuppliesNeeded.Wipes, r.SuppliesNeeded.ChangeOfClothes, r.OtherSupplyNote, r.GeneralNotes,
		r.CreatedAt.UTC(), r.LastModifiedAt.UTC(),
	)
	return err
}

func (s *SQLStore) reset(ctx context.Context, tx db.DBTX, r DailyRecord) error {
	_, err := tx.ExecContext(ctx, `
	UPDATE daily_records SET
		class_id = ?, created_by_staff_id = ?, last_modified_by_staff_id = ?,
		first_course = ?, second_course = ?, dessert = ?, snack = ?, meal_notes = '',
		nap_taken = 0, nap_start = NULL, nap_end = NULL, nap_notes = '',
		bowel_movement = 0, bowel_count = 0, bowel_notes = '',
		need_diapers = 0, need_wipes = 0, need_change_of_clothes = 0, other_supply_note = '', general_notes = '',
		deleted = 0,
		created_at = ?, last_modified_at = ?
	WHERE id = ? AND deleted = 1`,
		r.ClassID, r.CreatedByStaffID, r.LastModifiedByStaffID,
		string(r.Meals.FirstCourse), string(r.Meals.SecondCourse), string(r.Meals.Dessert), string(r.Meals.Snack),
		r.CreatedAt.UTC(), r.LastModifiedAt.UTC(), r.ID,
	)
	return err
}

// Replace: 職員が編集できる列のみ全置換。ID・作成者・保護者確認欄は触らない。
func (s *SQLStore) Replace(ctx context.Context, r DailyRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE daily_records SET
		class_id = ?, last_modified_by_staff_id = ?,
		first_course = ?, second_course = ?, dessert = ?, snack = ?, meal_notes = ?,
		nap_taken = ?, nap_start = ?, nap_end = ?, nap_notes = ?,
		bowel_movement = ?, bowel_count = ?, bowel_notes = ?,
		need_diapers = ?, need_wipes = ?, need_change_of_clothes = ?, other_supply_note = ?, general_notes = ?,
		last_modified_at = ?
	WHERE id = ? AND deleted = 0`,
		r.ClassID, r.LastModifiedByStaffID,
		string(r.Meals.FirstCourse), string(r.Meals.SecondCourse), string(r.Meals.Dessert), string(r.Meals.Snack), r.MealNotes,
		r.NapTaken, strOrNil(r.NapStart), strOrNil(r.NapEnd), r.NapNotes,
		r.BowelMovement, r.BowelCount, r.BowelNotes,
		r.SuppliesNeeded.Diapers, r.SuppliesNeeded.Wipes, r.SuppliesNeeded.ChangeOfClothes, r.OtherSupplyNote, r.GeneralNotes,
		r.LastModifiedAt.UTC(), r.ID,
	)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}

func (s *SQLStore) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	var deleted bool
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		cur, found, err := s.findTx(ctx, tx, id, true)
		if err != nil || !found {
			return err
		}
		if cur.Deleted {
			deleted = true
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE daily_records SET deleted = 1, last_modified_at = ? WHERE id = ?`, at.UTC(), cur.ID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (s *SQLStore) SaveReview(ctx context.Context, id, comment string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE daily_records SET
		reviewed_by_guardian = 1, reviewed_at = ?, guardian_comment = ?
	WHERE id = ? AND deleted = 0`, at.UTC(), comment, id)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}

// ListByStudent: 日付の新しい順。旧IDの行はここで正規化し、採用したものは付け替えて保存する。
func (s *SQLStore) ListByStudent(ctx context.Context, f ListFilter) ([]DailyRecord, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres = []string{"student_id = ?"}
	)
	args = append(args, f.StudentID)
	if f.From != nil {
		wheres = append(wheres, "record_date >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		wheres = append(wheres, "record_date <= ?")
		args = append(args, f.To.Format(dateLayout))
	}
	if !f.IncludeDeleted {
		wheres = append(wheres, "deleted = 0")
	}
	// 正規行（削除済み含む）がある旧行は最初から読まない
	wheres = append(wheres, `NOT (d.id LIKE ? AND EXISTS (
		SELECT 1 FROM daily_records c
		WHERE c.id = CONCAT(?, DATE_FORMAT(d.record_date, '%Y%m%d'), '_', d.student_id)))`)
	args = append(args, legacyLike(), IDPrefix)

	buf.WriteString(`SELECT ` + selectCols + ` FROM daily_records d`)
	buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	buf.WriteString(" ORDER BY record_date DESC, last_modified_at DESC")
	if f.Limit > 0 {
		buf.WriteString(fmt.Sprintf(" LIMIT %d", f.Limit+legacySlack))
	}

	rows, err := s.db.QueryContext(ctx, buf.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raw []DailyRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		raw = append(raw, r.toModel(s.loc))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out, adopted := migrateLegacy(raw)
	for id, legacyID := range adopted {
		s.adopt(ctx, legacyID, id)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// adopt は読み取りの副作用なので失敗してもログだけ
func (s *SQLStore) adopt(ctx context.Context, legacyID, id string) {
	if _, err := s.db.ExecContext(ctx, `UPDATE daily_records SET id = ? WHERE id = ?`, id, legacyID); err != nil {
		if !db.IsDuplicateKey(err) {
			log.Printf("[WARN] adopt legacy daily record %s: %v", legacyID, err)
		}
		return
	}
	log.Printf("[INFO] adopted legacy daily record %s as %s", legacyID, id)
}

// ===== helpers =====

func legacyLike() string {
	return strings.ReplaceAll(LegacyIDPrefix, "_", `\_`) + "%"
}

func strOrNil(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
