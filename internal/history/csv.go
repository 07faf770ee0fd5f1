package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"carebook-backend/internal/dailyrecord"
)

const csvContentType = "text/csv; charset=Shift_JIS"

// ExportCSV は園の事務PC（Windows の Excel）でそのまま開けるよう CP932 で書く。
// CP932 にない文字は置換される。
func (s *Service) ExportCSV(ctx context.Context, studentID string, start, end time.Time) ([]byte, error) {
	recs, err := s.ByDateRange(ctx, studentID, start, end)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	enc := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder())
	tw := transform.NewWriter(&b, enc)
	w := csv.NewWriter(tw)

	if err := w.Write(exportHeaders); err != nil {
		return nil, dailyrecord.ErrInternal("csv: " + err.Error())
	}
	for _, r := range recs {
		row := exportRow(r, s.loc)
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		if err := w.Write(cells); err != nil {
			return nil, dailyrecord.ErrInternal("csv: " + err.Error())
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, dailyrecord.ErrInternal("csv: " + err.Error())
	}
	if err := tw.Close(); err != nil {
		return nil, dailyrecord.ErrInternal("csv: " + err.Error())
	}
	return b.Bytes(), nil
}

func ExportCSVFilename(studentID string, start, end time.Time) string {
	return strings.TrimSuffix(ExportFilename(studentID, start, end), ".xlsx") + ".csv"
}
