package handler

import (
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

// currentUser pulls the authenticated user out of the gin context. Returns
// nil when AuthMiddleware did not run or the value has the wrong type.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("currentUser")
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
