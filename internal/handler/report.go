package handler

import (
	"net/http"
	"time"

	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/store"
	"github.com/iamnotbasant/basantmoney-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportHandler serves the budget and monthly report endpoints.
type ReportHandler struct {
	DB    *gorm.DB
	Store *store.Store
}

func NewReportHandler(db *gorm.DB, st *store.Store) *ReportHandler {
	return &ReportHandler{DB: db, Store: st}
}

// GetMonthlyReport returns per-day and per-category income/expense totals for
// one month (?month=2026-08, defaults to the current month).
func (h *ReportHandler) GetMonthlyReport(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	monthStr := c.Query("month")
	if monthStr == "" {
		monthStr = time.Now().Format("2006-01")
	}
	t, err := time.Parse("2006-01", monthStr)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "month must be YYYY-MM")
		return
	}

	startOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	endOfMonth := startOfMonth.AddDate(0, 1, 0)

	var incomes []models.IncomeEntry
	if err := h.DB.Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?",
		user.ID, startOfMonth, endOfMonth).
		Order("occurred_at ASC").
		Find(&incomes).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	var expenses []models.ExpenseEntry
	if err := h.DB.Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?",
		user.ID, startOfMonth, endOfMonth).
		Order("occurred_at ASC").
		Find(&expenses).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	type dailyStat struct {
		Date    string          `json:"date"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}
	type categoryStat struct {
		Category string          `json:"category"`
		Income   decimal.Decimal `json:"income"`
		Expense  decimal.Decimal `json:"expense"`
	}

	dailyMap := make(map[string]*dailyStat)
	catMap := make(map[string]*categoryStat)
	totalIncome := decimal.Zero
	totalExpense := decimal.Zero

	dayOf := func(ts time.Time) *dailyStat {
		key := ts.Format("2006-01-02")
		ds, ok := dailyMap[key]
		if !ok {
			ds = &dailyStat{Date: key, Income: decimal.Zero, Expense: decimal.Zero}
			dailyMap[key] = ds
		}
		return ds
	}
	catOf := func(category string) *categoryStat {
		cs, ok := catMap[category]
		if !ok {
			cs = &categoryStat{Category: category, Income: decimal.Zero, Expense: decimal.Zero}
			catMap[category] = cs
		}
		return cs
	}

	for i := range incomes {
		e := &incomes[i]
		ds := dayOf(e.OccurredAt)
		ds.Income = ds.Income.Add(e.Amount)
		cs := catOf(e.Category)
		cs.Income = cs.Income.Add(e.Amount)
		totalIncome = totalIncome.Add(e.Amount)
	}
	for i := range expenses {
		e := &expenses[i]
		ds := dayOf(e.OccurredAt)
		ds.Expense = ds.Expense.Add(e.Amount)
		cs := catOf(e.Category)
		cs.Expense = cs.Expense.Add(e.Amount)
		totalExpense = totalExpense.Add(e.Amount)
	}

	dailyList := make([]dailyStat, 0, len(dailyMap))
	for _, ds := range dailyMap {
		ds.Balance = ds.Income.Sub(ds.Expense)
		dailyList = append(dailyList, *ds)
	}
	catList := make([]categoryStat, 0, len(catMap))
	for _, cs := range catMap {
		catList = append(catList, *cs)
	}

	util.Success(c, util.Response{
		"month":         monthStr,
		"daily":         dailyList,
		"by_category":   catList,
		"total_income":  totalIncome,
		"total_expense": totalExpense,
		"total_balance": totalIncome.Sub(totalExpense),
	})
}

// GetBudgetOverview returns the current wallet picture: per-wallet derived
// totals, sub-wallet goal progress, and open udaar totals.
func (h *ReportHandler) GetBudgetOverview(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	wallets, err := h.Store.ListWallets(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load wallets")
		return
	}
	subs, err := h.Store.ListSubWallets(user.ID, "")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load sub-wallets")
		return
	}

	grandTotal := decimal.Zero
	walletTotals := make([]gin.H, 0, len(wallets))
	for _, w := range wallets {
		total := w.Balance
		for _, sub := range subs {
			if sub.ParentCategory == w.Category {
				total = total.Add(sub.Balance)
			}
		}
		grandTotal = grandTotal.Add(total)
		walletTotals = append(walletTotals, gin.H{
			"category":    w.Category,
			"name":        w.Name,
			"unallocated": w.Balance,
			"total":       total,
		})
	}

	goals := make([]gin.H, 0)
	for _, sub := range subs {
		if !sub.GoalEnabled || !sub.GoalAmount.IsPositive() {
			continue
		}
		progress := sub.Balance.Div(sub.GoalAmount).Mul(decimal.NewFromInt(100))
		goals = append(goals, gin.H{
			"sub_wallet": sub.Name,
			"category":   sub.ParentCategory,
			"target":     sub.GoalAmount,
			"balance":    sub.Balance,
			"progress":   progress.StringFixed(2),
			"reached":    sub.Balance.GreaterThanOrEqual(sub.GoalAmount),
		})
	}

	var open []models.UdaarEntry
	if err := h.DB.Where("user_id = ? AND status <> ?", user.ID, models.UdaarPaid).
		Find(&open).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	receivable := decimal.Zero
	payable := decimal.Zero
	for i := range open {
		if open[i].Type == models.UdaarGave {
			receivable = receivable.Add(open[i].Amount)
		} else {
			payable = payable.Add(open[i].Amount)
		}
	}

	util.Success(c, util.Response{
		"wallets":     walletTotals,
		"grand_total": grandTotal,
		"goals":       goals,
		"udaar": gin.H{
			"receivable": receivable,
			"payable":    payable,
		},
	})
}
