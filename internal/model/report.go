package model

import "time"

// User identifies a diary owner by their chat transport id.
type User struct {
	CreatedAt  time.Time
	ID         string
	TelegramID string
	Name       string
}

// Report groups the classified items of one user for one date.
type Report struct {
	CreatedAt time.Time
	Date      time.Time
	ID        string
	UserID    string
	Items     []ReportItem
}

// ReportItem is one persisted diary line. CategoryID is nil when
// classification failed or was skipped for the item.
type ReportItem struct {
	AmountGrams  *float64
	CategoryID   *int
	ID           string
	ReportID     string
	ProductName  string
	CategoryName string
}

// PlanEntry is a per-user target amount for one category of the taxonomy.
type PlanEntry struct {
	UserID       string
	CategoryName string
	CategoryID   int
	AmountGrams  float64
}
