package handler

import (
	"net/http"

	"github.com/iamnotbasant/basantmoney-sub000/internal/events"
	"github.com/iamnotbasant/basantmoney-sub000/internal/ledger"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DistributionHandler serves the per-user income split settings.
type DistributionHandler struct {
	DB  *gorm.DB
	Bus *events.Bus
}

func NewDistributionHandler(db *gorm.DB, bus *events.Bus) *DistributionHandler {
	return &DistributionHandler{DB: db, Bus: bus}
}

func (h *DistributionHandler) GetDistribution(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var setting models.DistributionSetting
	if err := h.DB.Where("user_id = ?", user.ID).First(&setting).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "distribution not configured")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	util.Success(c, util.Response{
		"distribution": gin.H{
			"saving": setting.Saving,
			"needs":  setting.Needs,
			"wants":  setting.Wants,
		},
	})
}

func (h *DistributionHandler) UpdateDistribution(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req ledger.Distribution
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	if err := req.Validate(); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "percentages must be 0-100 and sum to 100")
		return
	}

	var setting models.DistributionSetting
	if err := h.DB.Where("user_id = ?", user.ID).First(&setting).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "distribution not configured")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	setting.Saving = req.Saving
	setting.Needs = req.Needs
	setting.Wants = req.Wants
	if err := h.DB.Save(&setting).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.Bus.Publish(user.ID, events.DataChanged)
	util.Success(c, util.Response{
		"distribution": gin.H{
			"saving": setting.Saving,
			"needs":  setting.Needs,
			"wants":  setting.Wants,
		},
	})
}
