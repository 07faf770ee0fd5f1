package dailyrecord

import "strings"

func IsLegacyID(id string) bool {
	return strings.HasPrefix(id, LegacyIDPrefix)
}

// canonicalID is the id a record should carry, whatever it was stored under.
func (r DailyRecord) canonicalID() string {
	return DeriveID(r.Date, r.StudentID)
}

// MigrateLegacy rewrites placeholder ids to their canonical form.
//
// A legacy record is adopted only when no canonically keyed record for the
// same identity is present; otherwise it is stale and dropped. When several
// legacy records share an identity the most recently modified one wins.
// Order of the surviving records is preserved and the function is idempotent.
func MigrateLegacy(recs []DailyRecord) []DailyRecord {
	out, _ := migrateLegacy(recs)
	return out
}

// migrateLegacy also returns the adopted legacy ids keyed by canonical id.
func migrateLegacy(recs []DailyRecord) ([]DailyRecord, map[string]string) {
	canonical := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if !IsLegacyID(r.ID) {
			canonical[r.ID] = struct{}{}
		}
	}

	best := make(map[string]int)
	for i, r := range recs {
		if !IsLegacyID(r.ID) {
			continue
		}
		id := r.canonicalID()
		if _, ok := canonical[id]; ok {
			continue
		}
		if j, ok := best[id]; !ok || r.LastModifiedAt.After(recs[j].LastModifiedAt) {
			best[id] = i
		}
	}

	out := make([]DailyRecord, 0, len(recs))
	adopted := make(map[string]string, len(best))
	for i, r := range recs {
		if IsLegacyID(r.ID) {
			id := r.canonicalID()
			if j, ok := best[id]; !ok || j != i {
				continue
			}
			adopted[id] = r.ID
			r.ID = id
		}
		out = append(out, r)
	}
	return out, adopted
}
