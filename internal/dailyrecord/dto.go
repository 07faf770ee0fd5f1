package dailyrecord

import "time"

const TimeOfDayLayout = "15:04"

type CreateRecordRequest struct {
	ClassID string `json:"class_id" binding:"required"`
}

type MealsBody struct {
	FirstCourse  string `json:"first_course" validate:"max=32"`
	SecondCourse string `json:"second_course" validate:"max=32"`
	Dessert      string `json:"dessert" validate:"max=32"`
	Snack        string `json:"snack" validate:"max=32"`
}

type SuppliesBody struct {
	Diapers         bool `json:"diapers"`
	Wipes           bool `json:"wipes"`
	ChangeOfClothes bool `json:"change_of_clothes"`
}

// UpdateRecordRequest は全項目置換。省略した項目は初期値になる。
type UpdateRecordRequest struct {
	ClassID         string       `json:"class_id" validate:"required,max=64"`
	Meals           MealsBody    `json:"meals"`
	MealNotes       string       `json:"meal_notes" validate:"max=2000"`
	NapTaken        bool         `json:"nap_taken"`
	NapStart        *string      `json:"nap_start,omitempty" validate:"omitempty,datetime=15:04"`
	NapEnd          *string      `json:"nap_end,omitempty" validate:"omitempty,datetime=15:04"`
	NapNotes        string       `json:"nap_notes" validate:"max=2000"`
	BowelMovement   bool         `json:"bowel_movement"`
	BowelCount      int          `json:"bowel_count" validate:"gte=0,lte=50"`
	BowelNotes      string       `json:"bowel_notes" validate:"max=2000"`
	SuppliesNeeded  SuppliesBody `json:"supplies_needed"`
	OtherSupplyNote string       `json:"other_supply_note" validate:"max=500"`
	GeneralNotes    string       `json:"general_notes" validate:"max=4000"`
}

func (req UpdateRecordRequest) applyTo(r DailyRecord) DailyRecord {
	r.ClassID = req.ClassID
	r.Meals = Meals{
		FirstCourse:  NormalizeMealState(req.Meals.FirstCourse),
		SecondCourse: NormalizeMealState(req.Meals.SecondCourse),
		Dessert:      NormalizeMealState(req.Meals.Dessert),
		Snack:        NormalizeMealState(req.Meals.Snack),
	}
	r.MealNotes = req.MealNotes
	r.NapTaken = req.NapTaken
	r.NapStart = copyStr(req.NapStart)
	r.NapEnd = copyStr(req.NapEnd)
	r.NapNotes = req.NapNotes
	r.BowelMovement = req.BowelMovement
	r.BowelCount = req.BowelCount
	r.BowelNotes = req.BowelNotes
	r.SuppliesNeeded = Supplies(req.SuppliesNeeded)
	r.OtherSupplyNote = req.OtherSupplyNote
	r.GeneralNotes = req.GeneralNotes
	return r
}

type RecordResponse struct {
	ID                    string       `json:"id"`
	StudentID             string       `json:"student_id"`
	ClassID               string       `json:"class_id"`
	Date                  string       `json:"date"` // YYYY-MM-DD
	CreatedByStaffID      string       `json:"created_by_staff_id"`
	LastModifiedByStaffID string       `json:"last_modified_by_staff_id"`
	Meals                 MealsBody    `json:"meals"`
	MealNotes             string       `json:"meal_notes"`
	NapTaken              bool         `json:"nap_taken"`
	NapStart              *string      `json:"nap_start,omitempty"`
	NapEnd                *string      `json:"nap_end,omitempty"`
	NapNotes              string       `json:"nap_notes"`
	BowelMovement         bool         `json:"bowel_movement"`
	BowelCount            int          `json:"bowel_count"`
	BowelNotes            string       `json:"bowel_notes"`
	SuppliesNeeded        SuppliesBody `json:"supplies_needed"`
	OtherSupplyNote       string       `json:"other_supply_note"`
	GeneralNotes          string       `json:"general_notes"`
	ReviewedByGuardian    bool         `json:"reviewed_by_guardian"`
	ReviewedAt            *time.Time   `json:"reviewed_at,omitempty"`
	GuardianComment       string       `json:"guardian_comment"`
	CreatedAt             time.Time    `json:"created_at"`
	LastModifiedAt        time.Time    `json:"last_modified_at"`
}

func (r DailyRecord) ToDTO() RecordResponse {
	return RecordResponse{
		ID:                    r.ID,
		StudentID:             r.StudentID,
		ClassID:               r.ClassID,
		Date:                  r.Date.Format(dateLayout),
		CreatedByStaffID:      r.CreatedByStaffID,
		LastModifiedByStaffID: r.LastModifiedByStaffID,
		Meals: MealsBody{
			FirstCourse:  string(r.Meals.FirstCourse),
			SecondCourse: string(r.Meals.SecondCourse),
			Dessert:      string(r.Meals.Dessert),
			Snack:        string(r.Meals.Snack),
		},
		MealNotes:          r.MealNotes,
		NapTaken:           r.NapTaken,
		NapStart:           copyStr(r.NapStart),
		NapEnd:             copyStr(r.NapEnd),
		NapNotes:           r.NapNotes,
		BowelMovement:      r.BowelMovement,
		BowelCount:         r.BowelCount,
		BowelNotes:         r.BowelNotes,
		SuppliesNeeded:     SuppliesBody(r.SuppliesNeeded),
		OtherSupplyNote:    r.OtherSupplyNote,
		GeneralNotes:       r.GeneralNotes,
		ReviewedByGuardian: r.ReviewedByGuardian,
		ReviewedAt:         copyTime(r.ReviewedAt),
		GuardianComment:    r.GuardianComment,
		CreatedAt:          r.CreatedAt,
		LastModifiedAt:     r.LastModifiedAt,
	}
}

func ToDTOs(recs []DailyRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(recs))
	for i := 0; i < len(recs); i++ {
		out = append(out, recs[i].ToDTO())
	}
	return out
}
