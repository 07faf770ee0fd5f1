package dailyrecord

import "time"

// DetailState is the caregiver's editing screen for one record. It is only
// changed through ReduceDetail; the zero value is "nothing loaded".
type DetailState struct {
	record  DailyRecord
	loaded  bool
	dirty   bool
	saving  bool
	notice  *Notice
	warning string
}

func (s DetailState) Record() DailyRecord { return s.record.clone() }
func (s DetailState) Loaded() bool        { return s.loaded }
func (s DetailState) Dirty() bool         { return s.dirty }
func (s DetailState) Saving() bool        { return s.saving }
func (s DetailState) Warning() string     { return s.warning }

func (s DetailState) Notice() *Notice {
	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}

// MealSlot は給食4枠のどれか
type MealSlot int

const (
	SlotFirstCourse MealSlot = iota
	SlotSecondCourse
	SlotDessert
	SlotSnack
)

type DetailEvent interface{ detailEvent() }

// RecordOpened carries an optional warning, e.g. attendance not saved.
type RecordOpened struct {
	Record  DailyRecord
	Warning string
}

type MealChanged struct {
	Slot  MealSlot
	Value string
}

type MealNotesChanged struct{ Notes string }

type NapChanged struct {
	Taken      bool
	Start, End *string
	Notes      string
}

type BowelChanged struct {
	Movement bool
	Count    int
	Notes    string
	At       time.Time
}

type SuppliesChanged struct {
	Supplies  Supplies
	OtherNote string
}

type GeneralNotesChanged struct{ Notes string }

type SaveStarted struct{}

type SaveSucceeded struct{ Record DailyRecord }

type DetailFailed struct {
	Err error
	At  time.Time
}

type DetailTick struct{ Now time.Time }

type NoticeDismissed struct{}

func (RecordOpened) detailEvent()        {}
func (MealChanged) detailEvent()         {}
func (MealNotesChanged) detailEvent()    {}
func (NapChanged) detailEvent()          {}
func (BowelChanged) detailEvent()        {}
func (SuppliesChanged) detailEvent()     {}
func (GeneralNotesChanged) detailEvent() {}
func (SaveStarted) detailEvent()         {}
func (SaveSucceeded) detailEvent()       {}
func (DetailFailed) detailEvent()        {}
func (DetailTick) detailEvent()          {}
func (NoticeDismissed) detailEvent()     {}

// ReduceDetail returns the next state; s is never modified.
func ReduceDetail(s DetailState, ev DetailEvent) DetailState {
	next := s
	next.record = s.record.clone()

	switch e := ev.(type) {
	case RecordOpened:
		return DetailState{record: e.Record.Normalized().clone(), loaded: true, warning: e.Warning}
	case MealChanged:
		if !next.loaded {
			return s
		}
		st := NormalizeMealState(e.Value)
		switch e.Slot {
		case SlotFirstCourse:
			next.record.Meals.FirstCourse = st
		case SlotSecondCourse:
			next.record.Meals.SecondCourse = st
		case SlotDessert:
			next.record.Meals.Dessert = st
		case SlotSnack:
			next.record.Meals.Snack = st
		default:
			return s
		}
		next.dirty = true
	case MealNotesChanged:
		if !next.loaded {
			return s
		}
		next.record.MealNotes = e.Notes
		next.dirty = true
	case NapChanged:
		if !next.loaded {
			return s
		}
		next.record.NapTaken = e.Taken
		next.record.NapStart = copyStr(e.Start)
		next.record.NapEnd = copyStr(e.End)
		next.record.NapNotes = e.Notes
		next.dirty = true
	case BowelChanged:
		if !next.loaded {
			return s
		}
		if e.Count < 0 {
			next.notice = NewNotice(ErrInvalid("bowel_count must be >= 0"), e.At)
			return next
		}
		next.record.BowelMovement = e.Movement
		next.record.BowelCount = e.Count
		next.record.BowelNotes = e.Notes
		next.dirty = true
	case SuppliesChanged:
		if !next.loaded {
			return s
		}
		next.record.SuppliesNeeded = e.Supplies
		next.record.OtherSupplyNote = e.OtherNote
		next.dirty = true
	case GeneralNotesChanged:
		if !next.loaded {
			return s
		}
		next.record.GeneralNotes = e.Notes
		next.dirty = true
	case SaveStarted:
		next.saving = true
	case SaveSucceeded:
		next.record = e.Record.Normalized().clone()
		next.saving = false
		next.dirty = false
		next.notice = nil
	case DetailFailed:
		next.saving = false
		next.notice = NewNotice(e.Err, e.At)
	case DetailTick:
		next.notice = ClearExpired(s.notice, e.Now)
	case NoticeDismissed:
		next.notice = nil
	}
	return next
}
