package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/iamnotbasant/basantmoney-sub000/internal/events"
	"github.com/iamnotbasant/basantmoney-sub000/internal/ledger"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/store"
	"github.com/iamnotbasant/basantmoney-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletHandler serves wallet and sub-wallet endpoints.
type WalletHandler struct {
	DB    *gorm.DB
	Store *store.Store
	Bus   *events.Bus
}

func NewWalletHandler(db *gorm.DB, st *store.Store, bus *events.Bus) *WalletHandler {
	return &WalletHandler{DB: db, Store: st, Bus: bus}
}

type subWalletResp struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Percent      int             `json:"percent"`
	Color        string          `json:"color"`
	Balance      decimal.Decimal `json:"balance"`
	GoalAmount   decimal.Decimal `json:"goal_amount"`
	GoalEnabled  bool            `json:"goal_enabled"`
	GoalProgress string          `json:"goal_progress,omitempty"` // percent, 2 decimals
}

type walletResp struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Color      string          `json:"color"`
	Balance    decimal.Decimal `json:"balance"` // unallocated remainder
	Total      decimal.Decimal `json:"total"`   // remainder + sub-wallet balances
	SubWallets []subWalletResp `json:"sub_wallets"`
}

func toSubWalletResp(sub models.SubWallet) subWalletResp {
	resp := subWalletResp{
		ID:          sub.ID,
		Name:        sub.Name,
		Percent:     sub.AllocationPercent,
		Color:       sub.Color,
		Balance:     sub.Balance,
		GoalAmount:  sub.GoalAmount,
		GoalEnabled: sub.GoalEnabled,
	}
	if sub.GoalEnabled && sub.GoalAmount.IsPositive() {
		progress := sub.Balance.Div(sub.GoalAmount).Mul(decimal.NewFromInt(100))
		resp.GoalProgress = progress.StringFixed(2)
	}
	return resp
}

// ListWallets returns the three wallets with derived totals. Totals are
// recomputed from current rows on every call, never cached.
func (h *WalletHandler) ListWallets(c *gin.Context) {
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

	items := make([]walletResp, 0, len(wallets))
	for _, w := range wallets {
		resp := walletResp{
			ID:         w.ID,
			Name:       w.Name,
			Category:   w.Category,
			Color:      w.Color,
			Balance:    w.Balance,
			Total:      w.Balance,
			SubWallets: []subWalletResp{},
		}
		for _, sub := range subs {
			if sub.ParentCategory != w.Category {
				continue
			}
			resp.Total = resp.Total.Add(sub.Balance)
			resp.SubWallets = append(resp.SubWallets, toSubWalletResp(sub))
		}
		items = append(items, resp)
	}

	util.Success(c, util.Response{
		"wallets": items,
	})
}

// ---------- sub-wallets ----------

type createSubWalletReq struct {
	ParentCategory string `json:"parent_category" binding:"required"`
	Name           string `json:"name" binding:"required,max=64"`
	Percent        int    `json:"percent"`
	Color          string `json:"color" binding:"max=16"`
	GoalAmount     string `json:"goal_amount"`
	GoalEnabled    bool   `json:"goal_enabled"`
}

type updateSubWalletReq struct {
	Name        string `json:"name" binding:"required,max=64"`
	Percent     int    `json:"percent"`
	Color       string `json:"color" binding:"max=16"`
	GoalAmount  string `json:"goal_amount"`
	GoalEnabled bool   `json:"goal_enabled"`
}

// percentTotalExcluding sums the allocation percentages under one category,
// leaving out the sub-wallet being edited.
func (h *WalletHandler) percentTotalExcluding(userID uint, category string, excludeID uint) (int, error) {
	subs, err := h.Store.ListSubWallets(userID, category)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, sub := range subs {
		if sub.ID == excludeID {
			continue
		}
		total += sub.AllocationPercent
	}
	return total, nil
}

func parseGoalAmount(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, true
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero, false
	}
	return v, true
}

func (h *WalletHandler) CreateSubWallet(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req createSubWalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "name is required")
		return
	}
	if !models.ValidCategory(req.ParentCategory) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown category")
		return
	}
	if err := util.ValidatePercent(req.Percent); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "allocation percentage must be within 0-100")
		return
	}
	goalAmount, ok := parseGoalAmount(req.GoalAmount)
	if !ok {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid goal amount")
		return
	}

	// allocations under one category must not exceed 100%
	total, err := h.percentTotalExcluding(user.ID, req.ParentCategory, 0)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load sub-wallets")
		return
	}
	if total+req.Percent > 100 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "category allocations would exceed 100%")
		return
	}

	sub := models.SubWallet{
		UserID:            user.ID,
		ParentCategory:    req.ParentCategory,
		Name:              req.Name,
		AllocationPercent: req.Percent,
		Color:             req.Color,
		Balance:           decimal.Zero,
		GoalAmount:        goalAmount,
		GoalEnabled:       req.GoalEnabled,
	}
	if err := h.DB.Create(&sub).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"sub_wallet": toSubWalletResp(sub),
	})
}

func (h *WalletHandler) UpdateSubWallet(c *gin.Context) {
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

	var req updateSubWalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "name is required")
		return
	}
	if err := util.ValidatePercent(req.Percent); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "allocation percentage must be within 0-100")
		return
	}
	goalAmount, ok := parseGoalAmount(req.GoalAmount)
	if !ok {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid goal amount")
		return
	}

	var sub models.SubWallet
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "sub-wallet not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	total, err := h.percentTotalExcluding(user.ID, sub.ParentCategory, sub.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load sub-wallets")
		return
	}
	if total+req.Percent > 100 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "category allocations would exceed 100%")
		return
	}

	sub.Name = req.Name
	sub.AllocationPercent = req.Percent
	sub.Color = req.Color
	sub.GoalAmount = goalAmount
	sub.GoalEnabled = req.GoalEnabled

	if err := h.DB.Save(&sub).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"sub_wallet": toSubWalletResp(sub),
	})
}

// DeleteSubWallet removes a sub-wallet. Any remaining balance moves back to
// the parent wallet's unallocated remainder so money is never lost.
func (h *WalletHandler) DeleteSubWallet(c *gin.Context) {
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

	var sub models.SubWallet
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "sub-wallet not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	walletIDs, err := h.Store.WalletIDsByCategory(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load wallets")
		return
	}
	parentID, ok := walletIDs[sub.ParentCategory]
	if !ok {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "parent wallet missing")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if sub.Balance.IsPositive() {
			credit := []ledger.Credit{{Kind: ledger.KindWallet, ID: parentID, Amount: sub.Balance}}
			if err := h.Store.ApplyCredits(tx, user.ID, credit); err != nil {
				return err
			}
		}
		return tx.Delete(&sub).Error
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

// ---------- transfers ----------

type transferReq struct {
	From   ledger.SourceRef `json:"from" binding:"required"`
	To     ledger.SourceRef `json:"to" binding:"required"`
	Amount string           `json:"amount" binding:"required"`
}

// Transfer moves money between two funding sources. The debit side must have
// the full amount available; transfers are never clamped.
func (h *WalletHandler) Transfer(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req transferReq
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
	if req.From == req.To {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "source and destination are the same")
		return
	}

	lookup, err := h.Store.BalanceLookup(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load balances")
		return
	}

	available, ok := lookup(req.From.Kind, req.From.ID)
	if !ok {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "source not found")
		return
	}
	if _, ok := lookup(req.To.Kind, req.To.ID); !ok {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "destination not found")
		return
	}
	if available.LessThan(amount) {
		util.ErrorData(c, http.StatusBadRequest, util.CodeInsufficientFunds, "insufficient funds", util.Response{
			"available": available,
			"shortfall": amount.Sub(available),
		})
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		debit := []ledger.Deduction{{Kind: req.From.Kind, ID: req.From.ID, Amount: amount}}
		if err := h.Store.ApplyDebits(tx, user.ID, debit, false); err != nil {
			return err
		}
		credit := []ledger.Credit{{Kind: req.To.Kind, ID: req.To.ID, Amount: amount}}
		return h.Store.ApplyCredits(tx, user.ID, credit)
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "transfer failed")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"message": "transferred",
	})
}
