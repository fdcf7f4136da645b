// Package persistence contains helpers shared by repository implementations.
package persistence

import (
	"sort"

	"example.com/trainerworkload/internal/domain"
)

// Document is the stored shape of a ledger. Years and months are kept as
// sorted lists so that the JSONB column and the Mongo document read naturally.
type Document struct {
	Username  string         `json:"username" bson:"username"`
	FirstName string         `json:"firstName" bson:"firstName"`
	LastName  string         `json:"lastName" bson:"lastName"`
	IsActive  bool           `json:"isActive" bson:"isActive"`
	Years     []YearDocument `json:"years" bson:"years"`
	Version   int64          `json:"-" bson:"version"`
}

// YearDocument stores the months of one year.
type YearDocument struct {
	Year   int             `json:"year" bson:"year"`
	Months []MonthDocument `json:"months" bson:"months"`
}

// MonthDocument stores one month total.
type MonthDocument struct {
	Month           int `json:"month" bson:"month"`
	SummaryDuration int `json:"summaryDuration" bson:"summaryDuration"`
}

// ToDocument converts a ledger into its stored form.
func ToDocument(l *domain.Ledger) Document {
	doc := Document{
		Username:  l.Username,
		FirstName: l.FirstName,
		LastName:  l.LastName,
		IsActive:  l.IsActive,
		Version:   l.Version,
		Years:     make([]YearDocument, 0, len(l.Years)),
	}
	for year, yb := range l.Years {
		if yb == nil {
			continue
		}
		yd := YearDocument{Year: year, Months: make([]MonthDocument, 0, len(yb.Months))}
		for month, mb := range yb.Months {
			if mb == nil {
				continue
			}
			yd.Months = append(yd.Months, MonthDocument{Month: month, SummaryDuration: mb.SummaryDuration})
		}
		sort.Slice(yd.Months, func(i, j int) bool { return yd.Months[i].Month < yd.Months[j].Month })
		doc.Years = append(doc.Years, yd)
	}
	sort.Slice(doc.Years, func(i, j int) bool { return doc.Years[i].Year < doc.Years[j].Year })
	return doc
}

// Ledger converts a stored document back into the domain ledger.
// Duplicate year or month entries are merged by summing their durations.
func (d Document) Ledger() *domain.Ledger {
	l := domain.NewLedger(d.Username, d.FirstName, d.LastName, d.IsActive)
	l.Version = d.Version
	for _, yd := range d.Years {
		yb, ok := l.Years[yd.Year]
		if !ok {
			yb = &domain.YearBucket{Year: yd.Year, Months: make(map[int]*domain.MonthBucket, len(yd.Months))}
			l.Years[yd.Year] = yb
		}
		for _, md := range yd.Months {
			if mb, ok := yb.Months[md.Month]; ok {
				mb.SummaryDuration += md.SummaryDuration
				continue
			}
			yb.Months[md.Month] = &domain.MonthBucket{Month: md.Month, SummaryDuration: md.SummaryDuration}
		}
	}
	return l
}
