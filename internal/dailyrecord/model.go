package dailyrecord

import (
	"database/sql"
	"time"
)

type MealState string

const (
	MealNotServed     MealState = "NOT_SERVED"
	MealComplete      MealState = "COMPLETE"
	MealPartial       MealState = "PARTIAL"
	MealRefused       MealState = "REFUSED"
	MealNoData        MealState = "NO_DATA"
	MealNotApplicable MealState = "NOT_APPLICABLE"
)

// 給食は4枠固定
type Meals struct {
	FirstCourse  MealState
	SecondCourse MealState
	Dessert      MealState
	Snack        MealState
}

type Supplies struct {
	Diapers         bool
	Wipes           bool
	ChangeOfClothes bool
}

// DailyRecord は園児1人・1日分の連絡帳
type DailyRecord struct {
	ID                    string
	StudentID             string
	ClassID               string
	CreatedByStaffID      string
	LastModifiedByStaffID string
	Date                  time.Time

	Meals     Meals
	MealNotes string

	NapTaken bool
	NapStart *string // "HH:MM"
	NapEnd   *string
	NapNotes string

	BowelMovement bool
	BowelCount    int
	BowelNotes    string

	SuppliesNeeded  Supplies
	OtherSupplyNote string
	GeneralNotes    string

	Deleted bool

	ReviewedByGuardian bool
	ReviewedAt         *time.Time
	GuardianComment    string

	CreatedAt      time.Time
	LastModifiedAt time.Time
}

func defaultMeals() Meals {
	return Meals{
		FirstCourse:  MealNotServed,
		SecondCourse: MealNotServed,
		Dessert:      MealNotServed,
		Snack:        MealNotServed,
	}
}

// newRecord はすべて初期値の連絡帳を作る。date は暦日に丸め済みであること。
func newRecord(date time.Time, studentID, classID, staffID string, now time.Time) DailyRecord {
	return DailyRecord{
		ID:                    DeriveID(date, studentID),
		StudentID:             studentID,
		ClassID:               classID,
		CreatedByStaffID:      staffID,
		LastModifiedByStaffID: staffID,
		Date:                  date,
		Meals:                 defaultMeals(),
		CreatedAt:             now,
		LastModifiedAt:        now,
	}
}

// withStaffFields は職員が編集できる項目だけを src から取り込む
func (r DailyRecord) withStaffFields(src DailyRecord) DailyRecord {
	r.ClassID = src.ClassID
	r.Meals = src.Meals.normalized()
	r.MealNotes = src.MealNotes
	r.NapTaken = src.NapTaken
	r.NapStart = copyStr(src.NapStart)
	r.NapEnd = copyStr(src.NapEnd)
	r.NapNotes = src.NapNotes
	r.BowelMovement = src.BowelMovement
	r.BowelCount = src.BowelCount
	r.BowelNotes = src.BowelNotes
	r.SuppliesNeeded = src.SuppliesNeeded
	r.OtherSupplyNote = src.OtherSupplyNote
	r.GeneralNotes = src.GeneralNotes
	return r
}

// withReviewFields は保護者が書く欄だけ src から引き継ぐ
func (r DailyRecord) withReviewFields(src DailyRecord) DailyRecord {
	r.ReviewedByGuardian = src.ReviewedByGuardian
	r.ReviewedAt = copyTime(src.ReviewedAt)
	r.GuardianComment = src.GuardianComment
	return r
}

// DB行に対応（スキャン用）
type recordRow struct {
	ID                    string
	StudentID             string
	ClassID               string
	RecordDate            time.Time
	CreatedByStaffID      string
	LastModifiedByStaffID string
	FirstCourse           string
	SecondCourse          string
	Dessert               string
	Snack                 string
	MealNotes             string
	NapTaken              bool
	NapStart              sql.NullString
	NapEnd                sql.NullString
	NapNotes              string
	BowelMovement         bool
	BowelCount            int
	BowelNotes            string
	NeedDiapers           bool
	NeedWipes             bool
	NeedChangeOfClothes   bool
	OtherSupplyNote       string
	GeneralNotes          string
	Deleted               bool
	ReviewedByGuardian    bool
	ReviewedAt            sql.NullTime
	GuardianComment       string
	CreatedAt             time.Time
	LastModifiedAt        time.Time
}

func (r recordRow) toModel(loc *time.Location) DailyRecord {
	rec := DailyRecord{
		ID:                    r.ID,
		StudentID:             r.StudentID,
		ClassID:               r.ClassID,
		CreatedByStaffID:      r.CreatedByStaffID,
		LastModifiedByStaffID: r.LastModifiedByStaffID,
		// DATE 列は UTC の 00:00 で返るので暦日だけ取り出す
		Date: time.Date(r.RecordDate.Year(), r.RecordDate.Month(), r.RecordDate.Day(), 0, 0, 0, 0, loc),
		Meals: Meals{
			FirstCourse:  NormalizeMealState(r.FirstCourse),
			SecondCourse: NormalizeMealState(r.SecondCourse),
			Dessert:      NormalizeMealState(r.Dessert),
			Snack:        NormalizeMealState(r.Snack),
		},
		MealNotes:     r.MealNotes,
		NapTaken:      r.NapTaken,
		NapNotes:      r.NapNotes,
		BowelMovement: r.BowelMovement,
		BowelCount:    r.BowelCount,
		BowelNotes:    r.BowelNotes,
		SuppliesNeeded: Supplies{
			Diapers:         r.NeedDiapers,
			Wipes:           r.NeedWipes,
			ChangeOfClothes: r.NeedChangeOfClothes,
		},
		OtherSupplyNote:    r.OtherSupplyNote,
		GeneralNotes:       r.GeneralNotes,
		Deleted:            r.Deleted,
		ReviewedByGuardian: r.ReviewedByGuardian,
		GuardianComment:    r.GuardianComment,
		CreatedAt:          r.CreatedAt.UTC(),
		LastModifiedAt:     r.LastModifiedAt.UTC(),
	}
	if r.NapStart.Valid {
		v := r.NapStart.String
		rec.NapStart = &v
	}
	if r.NapEnd.Valid {
		v := r.NapEnd.String
		rec.NapEnd = &v
	}
	if r.ReviewedAt.Valid {
		v := r.ReviewedAt.Time.UTC()
		rec.ReviewedAt = &v
	}
	return rec
}

func copyStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// clone は参照型フィールドを複製する（スナップショット共有を避ける）
func (r DailyRecord) clone() DailyRecord {
	r.NapStart = copyStr(r.NapStart)
	r.NapEnd = copyStr(r.NapEnd)
	r.ReviewedAt = copyTime(r.ReviewedAt)
	return r
}
