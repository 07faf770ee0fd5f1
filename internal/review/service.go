package review

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"carebook-backend/internal/dailyrecord"
)

const MaxCommentLength = 2000

// Store は保護者が書き込める項目だけを扱う
type Store interface {
	Find(ctx context.Context, id string) (dailyrecord.DailyRecord, bool, error)
	SaveReview(ctx context.Context, id, comment string, at time.Time) (bool, error)
}

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Service struct {
	store Store
	clock Clock
}

func NewService(store Store) *Service {
	return &Service{store: store, clock: realClock{}}
}

func (s *Service) WithClock(c Clock) *Service {
	cp := *s
	cp.clock = c
	return &cp
}

// MarkReviewed は既読フラグを立てる。既に既読ならコメントと日時だけ上書きする。
// フラグを false に戻す操作は無い。
func (s *Service) MarkReviewed(ctx context.Context, recordID, comment string) (dailyrecord.DailyRecord, error) {
	if recordID == "" {
		return dailyrecord.DailyRecord{}, dailyrecord.ErrInvalid("record id is required")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return dailyrecord.DailyRecord{}, dailyrecord.ErrInvalid("comment is too long")
	}

	rec, found, err := s.store.Find(ctx, recordID)
	if err != nil {
		return dailyrecord.DailyRecord{}, dailyrecord.ErrStore("find", err)
	}
	if !found || rec.Deleted {
		return dailyrecord.DailyRecord{}, dailyrecord.ErrNotFound("daily record not found")
	}

	at := s.clock.Now().UTC()
	ok, err := s.store.SaveReview(ctx, rec.ID, comment, at)
	if err != nil {
		return dailyrecord.DailyRecord{}, dailyrecord.ErrStore("save review", err)
	}
	if !ok {
		// Find の後に削除された
		return dailyrecord.DailyRecord{}, dailyrecord.ErrNotFound("daily record not found")
	}

	rec.ReviewedByGuardian = true
	rec.ReviewedAt = &at
	rec.GuardianComment = comment
	return rec.Normalized(), nil
}
