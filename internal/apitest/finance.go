package apitest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const defaultCategoryColor = "#6B7280"

type transaction struct {
	id          int64
	userID      int64
	categoryID  *int64
	amount      decimal.Decimal
	kind        string
	description string
	date        time.Time
	createdAt   time.Time
}

type category struct {
	id     int64
	userID int64
	name   string
	kind   string
	color  string
}

func (c *category) object() object {
	return object{
		{"id", c.id},
		{"user_id", c.userID},
		{"name", c.name},
		{"type", c.kind},
		{"color", c.color},
	}
}

type createTransactionRequest struct {
	CategoryID  *int64  `json:"category_id"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Type        string  `json:"type" binding:"required,oneof=income expense"`
	Description string  `json:"description" binding:"required"`
	Date        string  `json:"date" binding:"required"`
}

type createCategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Type  string `json:"type" binding:"required,oneof=income expense"`
	Color string `json:"color"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// period reads the optional from/to query parameters. Malformed bounds are
// ignored.
func period(c *gin.Context) (from, to time.Time) {
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t
		}
	}
	return from, to
}

func inPeriod(date, from, to time.Time) bool {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if !from.IsZero() && day.Before(from) {
		return false
	}
	if !to.IsZero() && day.After(to) {
		return false
	}
	return true
}

// userTransactions returns the caller's transactions within the requested
// period, newest first. Callers hold s.mu.
func (s *Server) userTransactions(c *gin.Context) []*transaction {
	userID := c.GetInt64(userIDKey)
	from, to := period(c)
	var out []*transaction
	for _, t := range s.transactions {
		if t.userID == userID && inPeriod(t.date, from, to) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].date.Equal(out[j].date) {
			return out[i].date.After(out[j].date)
		}
		return out[i].id > out[j].id
	})
	return out
}

func (s *Server) listTransactions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An empty result is encoded as null, like the real backend.
	var out []map[string]any
	for _, t := range s.userTransactions(c) {
		o := object{
			{"id", t.id},
			{"amount", number(t.amount)},
			{"type", t.kind},
			{"description", t.description},
			{"date", t.date.Format(time.RFC3339)},
		}
		if t.categoryID != nil {
			if cat, ok := s.categories[*t.categoryID]; ok {
				o = append(o, field{"category_name", cat.name})
			}
		}
		out = append(out, s.render(o))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) summary(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	income, expense := decimal.Zero, decimal.Zero
	for _, t := range s.userTransactions(c) {
		if t.kind == "income" {
			income = income.Add(t.amount)
		} else {
			expense = expense.Add(t.amount)
		}
	}
	c.JSON(http.StatusOK, s.render(object{
		{"total_income", number(income)},
		{"total_expense", number(expense)},
		{"balance", number(income.Sub(expense))},
	}))
}

func (s *Server) createTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date format")
		return
	}

	userID := c.GetInt64(userIDKey)
	s.mu.Lock()
	defer s.mu.Unlock()

	var cat *category
	if req.CategoryID != nil {
		found, ok := s.categories[*req.CategoryID]
		if !ok || found.userID != userID {
			respondError(c, http.StatusBadRequest, "category not found")
			return
		}
		cat = found
	}

	now := s.now()
	t := &transaction{
		id:          s.nextID(),
		userID:      userID,
		categoryID:  req.CategoryID,
		amount:      decimal.NewFromFloat(req.Amount),
		kind:        req.Type,
		description: req.Description,
		date:        date,
		createdAt:   now,
	}
	s.transactions[t.id] = t

	o := object{
		{"id", t.id},
		{"user_id", t.userID},
		{"category_id", t.categoryID},
		{"amount", number(t.amount)},
		{"type", t.kind},
		{"description", t.description},
		{"date", t.date.Format(time.RFC3339)},
		{"created_at", now.Format(time.RFC3339)},
		{"updated_at", now.Format(time.RFC3339)},
	}
	if cat != nil {
		o = append(o, field{"category", cat.object()})
	}
	c.JSON(http.StatusCreated, s.render(o))
}

func (s *Server) deleteTransaction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.userID != c.GetInt64(userIDKey) {
		respondError(c, http.StatusNotFound, "transaction not found")
		return
	}
	delete(s.transactions, id)
	c.JSON(http.StatusOK, gin.H{"message": "transaction deleted"})
}

func (s *Server) listCategories(c *gin.Context) {
	userID := c.GetInt64(userIDKey)
	s.mu.Lock()
	defer s.mu.Unlock()

	var cats []*category
	for _, cat := range s.categories {
		if cat.userID == userID {
			cats = append(cats, cat)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].name < cats[j].name })

	out := make([]map[string]any, 0, len(cats))
	for _, cat := range cats {
		out = append(out, s.render(cat.object()))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Color == "" {
		req.Color = defaultCategoryColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cat := &category{
		id:     s.nextID(),
		userID: c.GetInt64(userIDKey),
		name:   req.Name,
		kind:   req.Type,
		color:  req.Color,
	}
	s.categories[cat.id] = cat
	c.JSON(http.StatusCreated, s.render(cat.object()))
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid category ID")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.categories[id]
	if !ok || cat.userID != c.GetInt64(userIDKey) {
		respondError(c, http.StatusNotFound, "category not found")
		return
	}
	delete(s.categories, id)
	for _, t := range s.transactions {
		if t.categoryID != nil && *t.categoryID == id {
			t.categoryID = nil
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
