package domain

// Resolve builds the monthly summary for (year, month). It never fails: missing
// ledgers, years and months all resolve to a zero duration.
func Resolve(ledger *Ledger, username string, year, month int) MonthlySummary {
	summary := MonthlySummary{
		Username: username,
		Year:     year,
		Month:    month,
	}
	if ledger == nil {
		return summary
	}

	firstName, lastName, isActive := ledger.FirstName, ledger.LastName, ledger.IsActive
	summary.FirstName = &firstName
	summary.LastName = &lastName
	summary.IsActive = &isActive

	if bucket, ok := ledger.Month(year, month); ok {
		summary.SummaryDuration = bucket.SummaryDuration
	}
	return summary
}
