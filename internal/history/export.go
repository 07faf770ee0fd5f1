package history

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"carebook-backend/internal/dailyrecord"
)

const exportSheet = "records"

var exportHeaders = []string{
	"date", "class_id",
	"first_course", "second_course", "dessert", "snack", "meal_notes",
	"nap_taken", "nap_start", "nap_end", "nap_notes",
	"bowel_movement", "bowel_count", "bowel_notes",
	"diapers", "wipes", "change_of_clothes", "other_supply_note",
	"general_notes",
	"reviewed_by_guardian", "reviewed_at", "guardian_comment",
}

func exportRow(r dailyrecord.DailyRecord, loc *time.Location) []any {
	reviewedAt := ""
	if r.ReviewedAt != nil {
		reviewedAt = r.ReviewedAt.In(loc).Format("2006-01-02 15:04")
	}
	return []any{
		r.Date.Format("2006-01-02"), r.ClassID,
		string(r.Meals.FirstCourse), string(r.Meals.SecondCourse), string(r.Meals.Dessert), string(r.Meals.Snack), r.MealNotes,
		r.NapTaken, deref(r.NapStart), deref(r.NapEnd), r.NapNotes,
		r.BowelMovement, r.BowelCount, r.BowelNotes,
		r.SuppliesNeeded.Diapers, r.SuppliesNeeded.Wipes, r.SuppliesNeeded.ChangeOfClothes, r.OtherSupplyNote,
		r.GeneralNotes,
		r.ReviewedByGuardian, reviewedAt, r.GuardianComment,
	}
}

// Export は ByDateRange の結果を1シートの xlsx にする
func (s *Service) Export(ctx context.Context, studentID string, start, end time.Time) ([]byte, error) {
	recs, err := s.ByDateRange(ctx, studentID, start, end)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), exportSheet); err != nil {
		return nil, dailyrecord.ErrInternal("xlsx: " + err.Error())
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, dailyrecord.ErrInternal("xlsx: " + err.Error())
		}
	}
	for row, r := range recs {
		for col, v := range exportRow(r, s.loc) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, dailyrecord.ErrInternal("xlsx: " + err.Error())
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, dailyrecord.ErrInternal("xlsx: " + err.Error())
	}
	return buf.Bytes(), nil
}

func ExportFilename(studentID string, start, end time.Time) string {
	return fmt.Sprintf("records_%s_%s_%s.xlsx", studentID, start.Format("20060102"), end.Format("20060102"))
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
