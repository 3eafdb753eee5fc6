package storage

import (
	"context"
	"fmt"
	"time"

	"college-budgeting-backend/internal/zone"
)

// DemoUserEmail owns the demo records inserted by SeedDemo.
const DemoUserEmail = "demo@cbs.local"

type demoEntry struct {
	daysAgo     int
	balance     float64
	dailySpend  float64
	description string
	category    string
}

var demoEntries = []demoEntry{
	{28, 1500000, 50000, "nasi padang makan siang", "Makanan"},
	{26, 1420000, 45000, "ojek online ke kampus", "Transportasi"},
	{25, 1380000, 60000, "beli buku kalkulus", "Pendidikan"},
	{23, 1300000, 35000, "kopi dan roti sarapan", "Makanan"},
	{21, 1250000, 20000, "bensin motor", "Transportasi"},
	{19, 1100000, 150000, "fotokopi modul dan print tugas", "Pendidikan"},
	{17, 1000000, 40000, "makan malam ayam geprek", "Makanan"},
	{15, 900000, 25000, "tiket bus ke rumah", "Transportasi"},
	{13, 850000, 75000, "nonton bioskop bareng teman", "Hiburan"},
	{11, 700000, 30000, "mie ayam dan es teh", "Makanan"},
	{8, 520000, 90000, "langganan streaming musik", "Hiburan"},
	{6, 400000, 45000, "ojek online pulang", "Transportasi"},
	{3, 250000, 55000, "makan siang warteg", "Makanan"},
	{1, 120000, 65000, "main game di warnet", "Hiburan"},
}

// SeedDemo inserts a labeled demo history for DemoUserEmail. It only runs
// when there are no spending records yet, so it is safe to repeat.
func (s *Store) SeedDemo(ctx context.Context) (int, error) {
	cnt, err := s.CountRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking spending records count: %w", err)
	}
	if cnt > 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := s.rebind(`
		INSERT INTO spending_records (user_email, balance, daily_spend, description, category,
			days_remaining, zone, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	now := time.Now().UTC()
	for _, e := range demoEntries {
		res, err := zone.Classify(e.balance, e.dailySpend)
		if err != nil {
			return 0, fmt.Errorf("classifying demo entry %q: %w", e.description, err)
		}
		createdAt := now.AddDate(0, 0, -e.daysAgo)
		if _, err := tx.ExecContext(ctx, query,
			DemoUserEmail, e.balance, e.dailySpend, e.description, e.category,
			res.DaysDisplay, string(res.Zone), res.Message, createdAt,
		); err != nil {
			return 0, fmt.Errorf("seeding demo records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(demoEntries), nil
}
