package dailyrecord

import "time"

// 入力ミスの通知は数秒で自動的に消える。保存失敗・未検出は明示的に閉じるまで残す。
const NoticeTTL = 4 * time.Second

// Notice is the error shown on a screen-level state. A zero ExpiresAt means
// it stays until dismissed or replaced.
type Notice struct {
	Code      Code
	Message   string
	ExpiresAt time.Time
}

func NewNotice(err error, now time.Time) *Notice {
	if err == nil {
		return nil
	}
	n := &Notice{Code: CodeOf(err), Message: ErrorFromErr(err).Error.Message}
	if n.Code == CodeInvalidArgument {
		n.ExpiresAt = now.Add(NoticeTTL)
	}
	return n
}

func (n *Notice) Transient() bool {
	return n != nil && !n.ExpiresAt.IsZero()
}

func (n *Notice) Expired(now time.Time) bool {
	return n.Transient() && !now.Before(n.ExpiresAt)
}

// ClearExpired is the shared Tick handling of every state reducer.
func ClearExpired(n *Notice, now time.Time) *Notice {
	if n.Expired(now) {
		return nil
	}
	return n
}
