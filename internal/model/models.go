// Package model holds the domain types shared by storage, services and the API.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"college-budgeting-backend/internal/zone"
)

// SpendingRecord is one user's financial snapshot at a point in time.
type SpendingRecord struct {
	ID            int64     `json:"id"`
	UserEmail     string    `json:"user_email"`
	Balance       float64   `json:"balance"`
	DailySpend    float64   `json:"daily_spend"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	DaysRemaining string    `json:"days_remaining"`
	Zone          zone.Zone `json:"zone"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// LabeledExample is a (description, category) training pair.
type LabeledExample struct {
	Description string
	Category    string
}

// CategoryTotal is the summed daily spend for one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// MonthlyHistory contains a user's records for one calendar month.
type MonthlyHistory struct {
	Month      int              `json:"month"`
	Year       int              `json:"year"`
	TotalSpend float64          `json:"total_spend"`
	Records    []SpendingRecord `json:"records"`
}

// User is a registered account.
type User struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Provider      string     `json:"provider"`
	PhotoURL      *string    `json:"photo_url"`
	Occupation    *string    `json:"occupation"`
	Age           *int       `json:"age"`
	BirthDate     *string    `json:"birth_date"`
	NameChangedAt *time.Time `json:"name_changed_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Savings goal statuses.
const (
	GoalActive   = "active"
	GoalAchieved = "achieved"
)

// SavingsGoal tracks progress towards a savings target.
type SavingsGoal struct {
	ID        int64           `json:"id"`
	UserEmail string          `json:"user_email"`
	Purpose   string          `json:"purpose"`
	Target    decimal.Decimal `json:"target_amount"`
	Collected decimal.Decimal `json:"collected_amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Progress returns the collected share of the target as a percentage, capped at 100.
func (g SavingsGoal) Progress() decimal.Decimal {
	if !g.Target.IsPositive() {
		return decimal.Zero
	}
	pct := g.Collected.Div(g.Target).Mul(decimal.NewFromInt(100)).Round(2)
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return pct
}
