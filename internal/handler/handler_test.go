package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/iamnotbasant/basantmoney-sub000/internal/database"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// newTestUser creates a user with the default wallets and distribution.
func newTestUser(t *testing.T, db *gorm.DB, st *store.Store) *models.User {
	t.Helper()
	user := models.User{Username: "tester", PasswordHash: "irrelevant"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := st.SeedDefaults(user.ID); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}
	return &user
}

// testContext builds an authenticated gin context with an optional JSON body
// and an optional :id path param.
func testContext(t *testing.T, user *models.User, body interface{}, id uint) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	c.Request = httptest.NewRequest("POST", "/", &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if id != 0 {
		c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(id), 10)}}
	}
	c.Set("currentUser", user)
	return c, w
}

func walletBalance(t *testing.T, db *gorm.DB, id uint) string {
	t.Helper()
	var w models.Wallet
	if err := db.First(&w, id).Error; err != nil {
		t.Fatalf("reload wallet %d: %v", id, err)
	}
	return w.Balance.String()
}
