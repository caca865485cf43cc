package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/iamnotbasant/basantmoney-sub000/internal/events"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// A payment that clears the remainder is still logged as partial_payment:
// the action names the trigger, the resulting paid status goes into the
// details payload.
func TestRecordPayment_SettlingPaymentKeepsPaymentAction(t *testing.T) {
	db := newTestDB(t)
	st := store.New(db)
	bus := events.NewBus()
	user := newTestUser(t, db, st)

	h := NewUdaarHandler(db, bus)

	entry := models.UdaarEntry{
		UserID:        user.ID,
		TransactionID: uuid.NewString(),
		PersonName:    "Ravi",
		Amount:        decimal.NewFromInt(500),
		Type:          models.UdaarGave,
		Status:        models.UdaarPending,
		OccurredAt:    time.Now(),
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	c, w := testContext(t, user, gin.H{"amount": "500"}, entry.ID)
	h.RecordPayment(c)
	if w.Code != http.StatusOK {
		t.Fatalf("RecordPayment status = %d, body = %s", w.Code, w.Body.String())
	}

	var got models.UdaarEntry
	if err := db.First(&got, entry.ID).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if got.Status != models.UdaarPaid || !got.Amount.IsZero() {
		t.Fatalf("entry = %s/%s, want paid/0", got.Status, got.Amount)
	}

	var rows []models.PaymentHistory
	if err := db.Where("transaction_id = ?", entry.TransactionID).Find(&rows).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("history rows = %d, want 1", len(rows))
	}
	if rows[0].Action != models.ActionPartialPayment {
		t.Errorf("action = %s, want %s", rows[0].Action, models.ActionPartialPayment)
	}

	var details map[string]interface{}
	if err := json.Unmarshal([]byte(rows[0].Details), &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	if details["status"] != models.UdaarPaid {
		t.Errorf("details.status = %v, want %s", details["status"], models.UdaarPaid)
	}
}
