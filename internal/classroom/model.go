package classroom

import "time"

type Class struct {
	ClassID  string
	Name     string
	IsActive bool
}

type Holiday struct {
	Date  time.Time
	Label string
}

const DateLayout = "2006-01-02"
