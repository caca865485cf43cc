package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/iamnotbasant/basantmoney-sub000/internal/events"
	"github.com/iamnotbasant/basantmoney-sub000/internal/ledger"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/store"
	"github.com/iamnotbasant/basantmoney-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseHandler serves expense entries. Expenses are all-or-nothing: when
// the selected sources cannot cover the amount the request is rejected with
// the shortfall and nothing is persisted.
type ExpenseHandler struct {
	DB    *gorm.DB
	Store *store.Store
	Bus   *events.Bus
}

func NewExpenseHandler(db *gorm.DB, st *store.Store, bus *events.Bus) *ExpenseHandler {
	return &ExpenseHandler{DB: db, Store: st, Bus: bus}
}

type expenseReq struct {
	Amount      string             `json:"amount" binding:"required"`
	Category    string             `json:"category" binding:"required,max=32"`
	Description string             `json:"description" binding:"max=255"`
	OccurredAt  string             `json:"occurred_at"`
	// Sources is the funding order chosen at entry time; the first source is
	// drained first.
	Sources []ledger.SourceRef `json:"sources" binding:"required,min=1,dive"`
}

type deductionResp struct {
	Kind   string          `json:"kind"`
	ID     uint            `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

type expenseResp struct {
	ID          uint            `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
	Deductions  []deductionResp `json:"deductions"`
}

func toExpenseResp(e *models.ExpenseEntry) expenseResp {
	resp := expenseResp{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
		CreatedAt:   e.CreatedAt,
		Deductions:  make([]deductionResp, 0, len(e.Deductions)),
	}
	for _, d := range e.Deductions {
		resp.Deductions = append(resp.Deductions, deductionResp{
			Kind:   d.SourceKind,
			ID:     d.SourceID,
			Amount: d.Amount,
		})
	}
	return resp
}

func deductionRows(entryID uint, deductions []ledger.Deduction) []models.ExpenseDeduction {
	rows := make([]models.ExpenseDeduction, 0, len(deductions))
	for i, d := range deductions {
		rows = append(rows, models.ExpenseDeduction{
			ExpenseEntryID: entryID,
			Position:       i,
			SourceKind:     d.Kind,
			SourceID:       d.ID,
			Amount:         d.Amount,
		})
	}
	return rows
}

func deductionsFromRows(rows []models.ExpenseDeduction) []ledger.Deduction {
	deductions := make([]ledger.Deduction, 0, len(rows))
	for _, r := range rows {
		deductions = append(deductions, ledger.Deduction{Kind: r.SourceKind, ID: r.SourceID, Amount: r.Amount})
	}
	return deductions
}

// rejectUncovered writes the appropriate error for a deduction result that
// cannot back an expense. Returns true when the request was rejected.
func rejectUncovered(c *gin.Context, res ledger.DeductResult) bool {
	if len(res.Missing) > 0 {
		util.ErrorData(c, http.StatusBadRequest, util.CodeInvalidParam, "some selected sources no longer exist", util.Response{
			"missing": res.Missing,
		})
		return true
	}
	if !res.Covered() {
		util.ErrorData(c, http.StatusBadRequest, util.CodeInsufficientFunds, "insufficient funds", util.Response{
			"shortfall": res.Shortfall,
		})
		return true
	}
	return false
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req expenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid amount")
		return
	}
	if err := util.ValidateAmount(amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid amount")
		return
	}
	occurredAt, err := util.ParseEntryDate(req.OccurredAt)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid transaction date")
		return
	}

	lookup, err := h.Store.BalanceLookup(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load balances")
		return
	}

	res, err := ledger.Deduct(amount, req.Sources, lookup)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if rejectUncovered(c, res) {
		return
	}

	entry := models.ExpenseEntry{
		UserID:      user.ID,
		Amount:      amount,
		Category:    req.Category,
		Description: req.Description,
		OccurredAt:  occurredAt,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		rows := deductionRows(entry.ID, res.Deductions)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		entry.Deductions = rows
		return h.Store.ApplyDebits(tx, user.ID, res.Deductions, false)
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"expense": toExpenseResp(&entry),
	})
}

// ListExpenses returns a page of expense entries, newest first, with
// optional date range and category filters.
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > 100 {
		size = 20
	}

	base := h.DB.Model(&models.ExpenseEntry{}).Where("user_id = ?", user.ID)
	if startStr := c.Query("start"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start date must be YYYY-MM-DD")
			return
		}
		base = base.Where("occurred_at >= ?", start)
	}
	if endStr := c.Query("end"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end date must be YYYY-MM-DD")
			return
		}
		base = base.Where("occurred_at < ?", end.Add(24*time.Hour))
	}
	if category := c.Query("category"); category != "" {
		base = base.Where("category = ?", category)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var entries []models.ExpenseEntry
	if err := base.Session(&gorm.Session{}).
		Preload("Deductions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("occurred_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]expenseResp, 0, len(entries))
	for i := range entries {
		items = append(items, toExpenseResp(&entries[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

var errInsufficient = errors.New("insufficient funds")

// UpdateExpense restores the old deductions, then re-deducts the new amount
// from the given sources against the restored balances, atomically.
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var req expenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid amount")
		return
	}
	if err := util.ValidateAmount(amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid amount")
		return
	}
	occurredAt, err := util.ParseEntryDate(req.OccurredAt)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid transaction date")
		return
	}

	var entry models.ExpenseEntry
	if err := h.DB.Preload("Deductions").
		Where("id = ? AND user_id = ?", id, user.ID).
		First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	var res ledger.DeductResult
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// restore the old deductions first so the new ones see the money;
		// sources deleted since the expense was recorded are skipped
		credits := ledger.ReverseExpense(deductionsFromRows(entry.Deductions))
		skipped, err := h.Store.ApplyReversalCredits(tx, user.ID, credits)
		if err != nil {
			return err
		}
		if len(skipped) > 0 {
			log.Printf("expense %d reversal: %d source(s) no longer exist, skipped", entry.ID, len(skipped))
		}

		// re-deduct against the restored balances inside this transaction
		lookup, err := store.New(tx).BalanceLookup(user.ID)
		if err != nil {
			return err
		}
		res, err = ledger.Deduct(amount, req.Sources, lookup)
		if err != nil {
			return err
		}
		if len(res.Missing) > 0 || !res.Covered() {
			return errInsufficient // rolls back the restore
		}

		if err := tx.Where("expense_entry_id = ?", entry.ID).Delete(&models.ExpenseDeduction{}).Error; err != nil {
			return err
		}

		entry.Amount = amount
		entry.Category = req.Category
		entry.Description = req.Description
		entry.OccurredAt = occurredAt
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		rows := deductionRows(entry.ID, res.Deductions)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		entry.Deductions = rows
		return h.Store.ApplyDebits(tx, user.ID, res.Deductions, false)
	})
	if errors.Is(err, errInsufficient) {
		rejectUncovered(c, res)
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"expense": toExpenseResp(&entry),
	})
}

// DeleteExpense restores each deducted source by exactly the recorded amount
// and removes the entry.
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var entry models.ExpenseEntry
	if err := h.DB.Preload("Deductions").
		Where("id = ? AND user_id = ?", id, user.ID).
		First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		credits := ledger.ReverseExpense(deductionsFromRows(entry.Deductions))
		skipped, err := h.Store.ApplyReversalCredits(tx, user.ID, credits)
		if err != nil {
			return err
		}
		if len(skipped) > 0 {
			log.Printf("expense %d reversal: %d source(s) no longer exist, skipped", entry.ID, len(skipped))
		}
		if err := tx.Where("expense_entry_id = ?", entry.ID).Delete(&models.ExpenseDeduction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"message": "deleted",
	})
}
