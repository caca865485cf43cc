package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/iamnotbasant/basantmoney-sub000/internal/events"
	"github.com/iamnotbasant/basantmoney-sub000/internal/ledger"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UdaarHandler serves peer-to-peer debt entries and their payment history.
type UdaarHandler struct {
	DB  *gorm.DB
	Bus *events.Bus
}

func NewUdaarHandler(db *gorm.DB, bus *events.Bus) *UdaarHandler {
	return &UdaarHandler{DB: db, Bus: bus}
}

type createUdaarReq struct {
	PersonName string `json:"person_name" binding:"required,max=64"`
	Amount     string `json:"amount" binding:"required"`
	Type       string `json:"type" binding:"required,oneof=gave took"`
	OccurredAt string `json:"occurred_at"`
	ParentTxID string `json:"parent_transaction_id" binding:"omitempty,uuid"`
}

type editUdaarReq struct {
	PersonName string `json:"person_name" binding:"required,max=64"`
	Amount     string `json:"amount" binding:"required"`
	Type       string `json:"type" binding:"required,oneof=gave took"`
	OccurredAt string `json:"occurred_at"`
}

type paymentReq struct {
	Amount string `json:"amount" binding:"required"`
}

type settleReq struct {
	PersonName string `json:"person_name" binding:"required,max=64"`
}

type udaarResp struct {
	ID             uint            `json:"id"`
	TransactionID  string          `json:"transaction_id"`
	PersonName     string          `json:"person_name"`
	Amount         decimal.Decimal `json:"amount"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	ParentTxID     string          `json:"parent_transaction_id,omitempty"`
	OccurredAt     string          `json:"occurred_at"`
}

func toUdaarResp(e *models.UdaarEntry) udaarResp {
	return udaarResp{
		ID:             e.ID,
		TransactionID:  e.TransactionID,
		PersonName:     e.PersonName,
		Amount:         e.Amount,
		OriginalAmount: e.OriginalAmount,
		Type:           e.Type,
		Status:         e.Status,
		ParentTxID:     e.ParentTxID,
		OccurredAt:     e.OccurredAt.Format("2006-01-02"),
	}
}

// appendHistory writes the single history row every transition requires.
// details, when non-nil, is stored as a JSON payload.
func appendHistory(tx *gorm.DB, e *models.UdaarEntry, action, description string, amount decimal.Decimal, details map[string]interface{}) error {
	row := models.PaymentHistory{
		UserID:        e.UserID,
		TransactionID: e.TransactionID,
		PersonName:    e.PersonName,
		Action:        action,
		Description:   description,
		Amount:        amount,
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		row.Details = string(b)
	}
	return tx.Create(&row).Error
}

func (h *UdaarHandler) CreateUdaar(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req createUdaarReq
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

	entry := models.UdaarEntry{
		UserID:        user.ID,
		TransactionID: uuid.NewString(),
		PersonName:    strings.TrimSpace(req.PersonName),
		Amount:        amount,
		Type:          req.Type,
		Status:        models.UdaarPending,
		ParentTxID:    req.ParentTxID,
		OccurredAt:    occurredAt,
	}

	verb := "gave to"
	if entry.Type == models.UdaarTook {
		verb = "took from"
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		desc := fmt.Sprintf("%s %s %s", verb, entry.PersonName, amount)
		return appendHistory(tx, &entry, models.ActionCreated, desc, amount, nil)
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"udaar": toUdaarResp(&entry),
	})
}

// ListUdaar returns the user's udaar entries with optional person/status
// filters, newest first, plus receivable/payable totals over the filtered
// set.
func (h *UdaarHandler) ListUdaar(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	base := h.DB.Model(&models.UdaarEntry{}).Where("user_id = ?", user.ID)
	if person := strings.TrimSpace(c.Query("person")); person != "" {
		base = base.Where("person_name = ?", person)
	}
	if status := c.Query("status"); status != "" {
		if status != models.UdaarPending && status != models.UdaarPartiallyPaid && status != models.UdaarPaid {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown status")
			return
		}
		base = base.Where("status = ?", status)
	}

	var entries []models.UdaarEntry
	if err := base.Order("occurred_at DESC, id DESC").Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]udaarResp, 0, len(entries))
	receivable := decimal.Zero // they owe me (gave)
	payable := decimal.Zero    // I owe them (took)
	for i := range entries {
		e := &entries[i]
		items = append(items, toUdaarResp(e))
		if e.Status == models.UdaarPaid {
			continue
		}
		if e.Type == models.UdaarGave {
			receivable = receivable.Add(e.Amount)
		} else {
			payable = payable.Add(e.Amount)
		}
	}

	util.Success(c, util.Response{
		"items":      items,
		"receivable": receivable,
		"payable":    payable,
	})
}

func (h *UdaarHandler) loadEntry(c *gin.Context, user *models.User) (*models.UdaarEntry, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return nil, false
	}

	var entry models.UdaarEntry
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return nil, false
	}
	return &entry, true
}

// UpdateUdaar edits a non-paid entry; the history row carries a before/after
// payload.
func (h *UdaarHandler) UpdateUdaar(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	entry, ok := h.loadEntry(c, user)
	if !ok {
		return
	}
	if entry.Status == models.UdaarPaid {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "paid entries cannot be edited")
		return
	}

	var req editUdaarReq
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

	before := map[string]interface{}{
		"person_name": entry.PersonName,
		"amount":      entry.Amount,
		"type":        entry.Type,
	}

	entry.PersonName = strings.TrimSpace(req.PersonName)
	entry.Amount = amount
	entry.Type = req.Type
	entry.OccurredAt = occurredAt
	// editing the amount restarts the payment tracking
	if entry.Status == models.UdaarPartiallyPaid {
		entry.Status = models.UdaarPending
		entry.OriginalAmount = decimal.Zero
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(entry).Error; err != nil {
			return err
		}
		details := map[string]interface{}{
			"before": before,
			"after": map[string]interface{}{
				"person_name": entry.PersonName,
				"amount":      entry.Amount,
				"type":        entry.Type,
			},
		}
		return appendHistory(tx, entry, models.ActionEdited, "entry edited", amount, details)
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"udaar": toUdaarResp(entry),
	})
}

// RecordPayment applies a partial payment; the entry transitions to
// partially_paid, or to paid when the remaining amount reaches zero.
func (h *UdaarHandler) RecordPayment(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	entry, ok := h.loadEntry(c, user)
	if !ok {
		return
	}

	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid amount")
		return
	}

	remainingBefore := entry.Amount
	if err := ledger.ApplyPartialPayment(entry, amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(entry).Error; err != nil {
			return err
		}
		// the action records the trigger (a payment), even when the payment
		// settles the entry; the resulting status lives in the details
		desc := fmt.Sprintf("partial payment of %s", amount)
		if entry.Status == models.UdaarPaid {
			desc = fmt.Sprintf("final payment of %s, settled", amount)
		}
		details := map[string]interface{}{
			"remaining_before": remainingBefore,
			"remaining_after":  entry.Amount,
			"status":           entry.Status,
		}
		return appendHistory(tx, entry, models.ActionPartialPayment, desc, amount, details)
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"udaar": toUdaarResp(entry),
	})
}

// MarkPaid settles a single entry outright.
func (h *UdaarHandler) MarkPaid(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	entry, ok := h.loadEntry(c, user)
	if !ok {
		return
	}

	settled := entry.Amount
	if err := ledger.MarkPaid(entry); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(entry).Error; err != nil {
			return err
		}
		return appendHistory(tx, entry, models.ActionMarkedPaid, "marked as paid", settled, nil)
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"udaar": toUdaarResp(entry),
	})
}

// SettleAll marks every open entry for one person as paid, appending one
// history row per settled entry.
func (h *UdaarHandler) SettleAll(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req settleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	person := strings.TrimSpace(req.PersonName)

	var entries []models.UdaarEntry
	if err := h.DB.Where("user_id = ? AND person_name = ? AND status <> ?",
		user.ID, person, models.UdaarPaid).
		Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	if len(entries) == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "nothing to settle for this person")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			e := &entries[i]
			settled := e.Amount
			if err := ledger.MarkPaid(e); err != nil {
				return err
			}
			if err := tx.Save(e).Error; err != nil {
				return err
			}
			if err := appendHistory(tx, e, models.ActionSettled, "settled in bulk", settled, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "settle failed")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"message": "settled",
		"count":   len(entries),
	})
}

func (h *UdaarHandler) DeleteUdaar(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	entry, ok := h.loadEntry(c, user)
	if !ok {
		return
	}

	if err := h.DB.Delete(entry).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"message": "deleted",
	})
}

// ListHistory returns the payment history log, newest first, optionally
// filtered by person or transaction.
func (h *UdaarHandler) ListHistory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if size <= 0 || size > 200 {
		size = 50
	}

	base := h.DB.Model(&models.PaymentHistory{}).Where("user_id = ?", user.ID)
	if person := strings.TrimSpace(c.Query("person")); person != "" {
		base = base.Where("person_name = ?", person)
	}
	if txID := c.Query("transaction_id"); txID != "" {
		base = base.Where("transaction_id = ?", txID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var rows []models.PaymentHistory
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		item := gin.H{
			"id":             r.ID,
			"transaction_id": r.TransactionID,
			"person_name":    r.PersonName,
			"action":         r.Action,
			"description":    r.Description,
			"amount":         r.Amount,
			"date":           r.CreatedAt,
		}
		if r.Details != "" {
			item["details"] = json.RawMessage(r.Details)
		}
		items = append(items, item)
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
