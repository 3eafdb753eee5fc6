package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"college-budgeting-backend/internal/account"
	"college-budgeting-backend/internal/cache"
	"college-budgeting-backend/internal/ingest"
	"college-budgeting-backend/internal/model"
)

// healthCheck reports database reachability and whether a model is serving.
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.records.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      "college-budgeting-backend",
		"model_loaded": s.registry != nil && s.registry.Current() != nil,
	})
}

type survivalRequest struct {
	UserEmail   string   `json:"user_email"`
	Balance     *float64 `json:"balance" binding:"required"`
	DailySpend  *float64 `json:"daily_spend" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
}

// ingestSnapshot classifies, stores and learns from one balance snapshot.
func (s *Server) ingestSnapshot(c *gin.Context) {
	var req survivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := s.ingest.Ingest(c.Request.Context(), ingest.Input{
		UserEmail:   req.UserEmail,
		Balance:     *req.Balance,
		DailySpend:  *req.DailySpend,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Invalidate cache
	s.cache.InvalidateUser(c.Request.Context(), res.Record.UserEmail)

	c.JSON(http.StatusCreated, gin.H{
		"status":             "success",
		"zone":               res.Zone,
		"days_remaining":     res.DaysRemaining,
		"message":            res.Message,
		"predicted_category": res.PredictedCategory,
		"record":             res.Record,
	})
}

// previewSnapshot classifies without storing anything.
func (s *Server) previewSnapshot(c *gin.Context) {
	balance, err := strconv.ParseFloat(c.Query("balance"), 64)
	if err != nil {
		badRequest(c, "invalid balance")
		return
	}
	dailySpend, err := strconv.ParseFloat(c.Query("daily_spend"), 64)
	if err != nil {
		badRequest(c, "invalid daily_spend")
		return
	}

	res, err := s.ingest.Preview(balance, dailySpend)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// userEmail reads the required user_email query parameter.
func userEmail(c *gin.Context) (string, bool) {
	email := strings.TrimSpace(c.Query("user_email"))
	if email == "" {
		badRequest(c, "user_email is required")
		return "", false
	}
	return email, true
}

// getHistory lists a user's records, newest first, through the read cache.
func (s *Server) getHistory(c *gin.Context) {
	email, ok := userEmail(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	key := cache.HistoryKey(email)

	var records []model.SpendingRecord
	if s.cache.Get(ctx, key, &records) {
		c.JSON(http.StatusOK, records)
		return
	}

	records, err := s.records.ListRecords(ctx, email)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.cache.Set(ctx, key, records, cache.HistoryTTL)
	c.JSON(http.StatusOK, records)
}

// getMonthlyHistory lists one calendar month of records with their summed
// daily spend. Month and year default to the current month.
func (s *Server) getMonthlyHistory(c *gin.Context) {
	email, ok := userEmail(c)
	if !ok {
		return
	}

	now := s.now().UTC()
	month, year := int(now.Month()), now.Year()
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			badRequest(c, "month must be between 1 and 12")
			return
		}
		month = m
	}
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			badRequest(c, "invalid year")
			return
		}
		year = y
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	records, err := s.records.ListRecordsInRange(c.Request.Context(), email, from, from.AddDate(0, 1, 0))
	if err != nil {
		s.respondError(c, err)
		return
	}

	history := model.MonthlyHistory{Month: month, Year: year, Records: records}
	for _, r := range records {
		history.TotalSpend += r.DailySpend
	}
	c.JSON(http.StatusOK, history)
}

// getStatistics returns per-category spend totals through the read cache.
func (s *Server) getStatistics(c *gin.Context) {
	email, ok := userEmail(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	key := cache.StatisticsKey(email)

	var totals []model.CategoryTotal
	if s.cache.Get(ctx, key, &totals) {
		c.JSON(http.StatusOK, totals)
		return
	}

	totals, err := s.records.CategoryTotals(ctx, email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if totals == nil {
		totals = make([]model.CategoryTotal, 0)
	}

	s.cache.Set(ctx, key, totals, cache.StatisticsTTL)
	c.JSON(http.StatusOK, totals)
}

// deleteRecord removes one of the user's records.
func (s *Server) deleteRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid record id")
		return
	}
	email, ok := userEmail(c)
	if !ok {
		return
	}

	if err := s.records.DeleteRecord(c.Request.Context(), id, email); err != nil {
		s.respondError(c, err)
		return
	}

	// Invalidate cache
	s.cache.InvalidateUser(c.Request.Context(), email)

	c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
}

func (s *Server) register(c *gin.Context) {
	var req account.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	u, err := s.accounts.Register(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Account created", "user": u})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	u, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"message":    "Welcome back, " + u.Name + "!",
		"user_email": u.Email,
		"user_name":  u.Name,
	})
}

func (s *Server) getProfile(c *gin.Context) {
	email, ok := userEmail(c)
	if !ok {
		return
	}
	u, err := s.accounts.Profile(c.Request.Context(), email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req account.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	u, err := s.accounts.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": u})
}

// goalResponse adds the derived progress percentage to a goal.
type goalResponse struct {
	model.SavingsGoal
	Progress decimal.Decimal `json:"progress"`
}

func newGoalResponse(g model.SavingsGoal) goalResponse {
	return goalResponse{SavingsGoal: g, Progress: g.Progress()}
}

type createGoalRequest struct {
	UserEmail    string          `json:"user_email"`
	Purpose      string          `json:"purpose"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}

func (s *Server) createGoal(c *gin.Context) {
	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	g, err := s.savings.Create(c.Request.Context(), req.UserEmail, req.Purpose, req.TargetAmount)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGoalResponse(*g))
}

func (s *Server) listGoals(c *gin.Context) {
	email, ok := userEmail(c)
	if !ok {
		return
	}
	goals, err := s.savings.List(c.Request.Context(), email)
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	c.JSON(http.StatusOK, out)
}

type depositRequest struct {
	UserEmail string          `json:"user_email"`
	Amount    decimal.Decimal `json:"amount"`
}

func (s *Server) deposit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid savings goal id")
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	g, err := s.savings.Deposit(c.Request.Context(), id, req.UserEmail, req.Amount)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGoalResponse(*g))
}
