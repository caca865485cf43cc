package handler

import (
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

// IncomeHandler serves income entries. Every income persists its allocation
// breakdown so edit and delete reverse exactly what was credited, regardless
// of later distribution or sub-wallet changes.
type IncomeHandler struct {
	DB    *gorm.DB
	Store *store.Store
	Bus   *events.Bus
}

func NewIncomeHandler(db *gorm.DB, st *store.Store, bus *events.Bus) *IncomeHandler {
	return &IncomeHandler{DB: db, Store: st, Bus: bus}
}

type incomeReq struct {
	Amount     string `json:"amount" binding:"required"`
	Category   string `json:"category" binding:"required,max=32"`
	Source     string `json:"source" binding:"max=128"`
	OccurredAt string `json:"occurred_at"`
}

type allocationResp struct {
	Kind   string          `json:"kind"`
	ID     uint            `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

type incomeResp struct {
	ID          uint             `json:"id"`
	Amount      decimal.Decimal  `json:"amount"`
	Category    string           `json:"category"`
	Source      string           `json:"source"`
	OccurredAt  time.Time        `json:"occurred_at"`
	CreatedAt   time.Time        `json:"created_at"`
	Allocations []allocationResp `json:"allocations"`
}

func toIncomeResp(e *models.IncomeEntry) incomeResp {
	resp := incomeResp{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    e.Category,
		Source:      e.Source,
		OccurredAt:  e.OccurredAt,
		CreatedAt:   e.CreatedAt,
		Allocations: make([]allocationResp, 0, len(e.Allocations)),
	}
	for _, a := range e.Allocations {
		resp.Allocations = append(resp.Allocations, allocationResp{
			Kind:   a.TargetKind,
			ID:     a.TargetID,
			Amount: a.Amount,
		})
	}
	return resp
}

// allocateFor runs the allocation engine against the user's current
// distribution and sub-wallet configuration.
func (h *IncomeHandler) allocateFor(userID uint, amount decimal.Decimal) ([]ledger.Credit, error) {
	var setting models.DistributionSetting
	if err := h.DB.Where("user_id = ?", userID).First(&setting).Error; err != nil {
		return nil, err
	}
	dist := ledger.Distribution{Saving: setting.Saving, Needs: setting.Needs, Wants: setting.Wants}
	if err := dist.Validate(); err != nil {
		return nil, err
	}

	walletIDs, err := h.Store.WalletIDsByCategory(userID)
	if err != nil {
		return nil, err
	}
	shares, err := h.Store.SubWalletShares(userID)
	if err != nil {
		return nil, err
	}

	return ledger.Allocate(amount, dist, walletIDs, shares)
}

func allocationRows(entryID uint, credits []ledger.Credit) []models.IncomeAllocation {
	rows := make([]models.IncomeAllocation, 0, len(credits))
	for _, cr := range credits {
		rows = append(rows, models.IncomeAllocation{
			IncomeEntryID: entryID,
			TargetKind:    cr.Kind,
			TargetID:      cr.ID,
			Amount:        cr.Amount,
		})
	}
	return rows
}

func creditsFromRows(rows []models.IncomeAllocation) []ledger.Credit {
	credits := make([]ledger.Credit, 0, len(rows))
	for _, r := range rows {
		credits = append(credits, ledger.Credit{Kind: r.TargetKind, ID: r.TargetID, Amount: r.Amount})
	}
	return credits
}

func (h *IncomeHandler) CreateIncome(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req incomeReq
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

	credits, err := h.allocateFor(user.ID, amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "allocation failed: check distribution settings")
		return
	}

	entry := models.IncomeEntry{
		UserID:     user.ID,
		Amount:     amount,
		Category:   req.Category,
		Source:     req.Source,
		OccurredAt: occurredAt,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		rows := allocationRows(entry.ID, credits)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		entry.Allocations = rows
		return h.Store.ApplyCredits(tx, user.ID, credits)
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"income": toIncomeResp(&entry),
	})
}

// ListIncomes returns a page of income entries, newest first, with optional
// start/end date filters (YYYY-MM-DD).
func (h *IncomeHandler) ListIncomes(c *gin.Context) {
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

	base := h.DB.Model(&models.IncomeEntry{}).Where("user_id = ?", user.ID)
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

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var entries []models.IncomeEntry
	if err := base.Session(&gorm.Session{}).
		Preload("Allocations").
		Order("occurred_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]incomeResp, 0, len(entries))
	for i := range entries {
		items = append(items, toIncomeResp(&entries[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// UpdateIncome reverses the entry's stored breakdown, then re-allocates the
// new amount against the current settings, all in one transaction.
func (h *IncomeHandler) UpdateIncome(c *gin.Context) {
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

	var req incomeReq
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

	var entry models.IncomeEntry
	if err := h.DB.Preload("Allocations").
		Where("id = ? AND user_id = ?", id, user.ID).
		First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	newCredits, err := h.allocateFor(user.ID, amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "allocation failed: check distribution settings")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// undo the old breakdown, clamped at zero; targets deleted since the
		// income was recorded are skipped, their money already moved to the
		// parent wallet
		debits := ledger.ReverseIncome(creditsFromRows(entry.Allocations))
		skipped, err := h.Store.ApplyReversalDebits(tx, user.ID, debits)
		if err != nil {
			return err
		}
		if len(skipped) > 0 {
			log.Printf("income %d reversal: %d allocation target(s) no longer exist, skipped", entry.ID, len(skipped))
		}
		if err := tx.Where("income_entry_id = ?", entry.ID).Delete(&models.IncomeAllocation{}).Error; err != nil {
			return err
		}

		entry.Amount = amount
		entry.Category = req.Category
		entry.Source = req.Source
		entry.OccurredAt = occurredAt
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		rows := allocationRows(entry.ID, newCredits)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		entry.Allocations = rows
		return h.Store.ApplyCredits(tx, user.ID, newCredits)
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"income": toIncomeResp(&entry),
	})
}

// DeleteIncome reverses the entry's stored breakdown and removes it.
func (h *IncomeHandler) DeleteIncome(c *gin.Context) {
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

	var entry models.IncomeEntry
	if err := h.DB.Preload("Allocations").
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
		debits := ledger.ReverseIncome(creditsFromRows(entry.Allocations))
		skipped, err := h.Store.ApplyReversalDebits(tx, user.ID, debits)
		if err != nil {
			return err
		}
		if len(skipped) > 0 {
			log.Printf("income %d reversal: %d allocation target(s) no longer exist, skipped", entry.ID, len(skipped))
		}
		if err := tx.Where("income_entry_id = ?", entry.ID).Delete(&models.IncomeAllocation{}).Error; err != nil {
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
