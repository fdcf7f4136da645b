package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActionType enumerates the operations a command can request.
type ActionType string

const (
	ActionAdd    ActionType = "ADD"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
	ActionGet    ActionType = "GET"
)

// ParseActionType normalises raw input into a known ActionType.
func ParseActionType(raw string) (ActionType, error) {
	switch a := ActionType(strings.ToUpper(strings.TrimSpace(raw))); a {
	case ActionAdd, ActionUpdate, ActionDelete, ActionGet:
		return a, nil
	default:
		return "", fmt.Errorf("Unsupported action type: %s", raw)
	}
}

// Mutating reports whether the action changes the ledger.
func (a ActionType) Mutating() bool {
	switch a {
	case ActionAdd, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Ledger is the per-trainer aggregate of training minutes.
type Ledger struct {
	Username  string
	FirstName string
	LastName  string
	IsActive  bool
	Years     map[int]*YearBucket

	// Version is owned by the repository; zero means the ledger was never stored.
	Version int64
}

// YearBucket groups month totals for one calendar year.
type YearBucket struct {
	Year   int
	Months map[int]*MonthBucket
}

// MonthBucket holds the running total for one month. SummaryDuration is never negative.
type MonthBucket struct {
	Month           int
	SummaryDuration int
}

// NewLedger returns an empty ledger for username.
func NewLedger(username, firstName, lastName string, isActive bool) *Ledger {
	return &Ledger{
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  isActive,
		Years:     make(map[int]*YearBucket),
	}
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	out := &Ledger{
		Username:  l.Username,
		FirstName: l.FirstName,
		LastName:  l.LastName,
		IsActive:  l.IsActive,
		Version:   l.Version,
		Years:     make(map[int]*YearBucket, len(l.Years)),
	}
	for year, bucket := range l.Years {
		if bucket == nil {
			continue
		}
		months := make(map[int]*MonthBucket, len(bucket.Months))
		for month, mb := range bucket.Months {
			if mb == nil {
				continue
			}
			copied := *mb
			months[month] = &copied
		}
		out.Years[year] = &YearBucket{Year: bucket.Year, Months: months}
	}
	return out
}

// Month returns the bucket for (year, month) if present.
func (l *Ledger) Month(year, month int) (*MonthBucket, bool) {
	if l == nil {
		return nil, false
	}
	yb, ok := l.Years[year]
	if !ok || yb == nil {
		return nil, false
	}
	mb, ok := yb.Months[month]
	if !ok || mb == nil {
		return nil, false
	}
	return mb, true
}

// monthFor finds or creates the bucket for (year, month).
func (l *Ledger) monthFor(year, month int) *MonthBucket {
	if l.Years == nil {
		l.Years = make(map[int]*YearBucket)
	}
	yb, ok := l.Years[year]
	if !ok || yb == nil {
		yb = &YearBucket{Year: year, Months: make(map[int]*MonthBucket)}
		l.Years[year] = yb
	}
	if yb.Months == nil {
		yb.Months = make(map[int]*MonthBucket)
	}
	mb, ok := yb.Months[month]
	if !ok || mb == nil {
		mb = &MonthBucket{Month: month}
		yb.Months[month] = mb
	}
	return mb
}

// Command is a single workload instruction received over either channel.
type Command struct {
	Username         string
	FirstName        string
	LastName         string
	IsActive         bool
	TrainingDate     time.Time
	TrainingDuration int
	ActionType       ActionType
	TransactionID    string
}

// MonthlySummary is the read model returned for a (username, year, month) query.
// Profile fields are nil when the trainer has no ledger.
type MonthlySummary struct {
	Username        string  `json:"username"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	IsActive        *bool   `json:"isActive"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	SummaryDuration int     `json:"summaryDuration"`
}
