package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler exports the full transaction list as CSV or XLSX.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

type exportRow struct {
	kind        string
	category    string
	amount      string
	description string
	date        string
}

var exportHeaders = []string{"Type", "Category", "Amount", "Description", "Date"}

// exportRows collects incomes and expenses, newest first.
func (h *ExportHandler) exportRows(userID uint) ([]exportRow, error) {
	var incomes []models.IncomeEntry
	if err := h.DB.Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Find(&incomes).Error; err != nil {
		return nil, err
	}
	var expenses []models.ExpenseEntry
	if err := h.DB.Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Find(&expenses).Error; err != nil {
		return nil, err
	}

	rows := make([]exportRow, 0, len(incomes)+len(expenses))
	for i := range incomes {
		e := &incomes[i]
		rows = append(rows, exportRow{
			kind:        "income",
			category:    e.Category,
			amount:      e.Amount.String(),
			description: e.Source,
			date:        e.OccurredAt.Format("2006-01-02"),
		})
	}
	for i := range expenses {
		e := &expenses[i]
		rows = append(rows, exportRow{
			kind:        "expense",
			category:    e.Category,
			amount:      e.Amount.String(),
			description: e.Description,
			date:        e.OccurredAt.Format("2006-01-02"),
		})
	}
	return rows, nil
}

// ExportCSV writes all transactions as a CSV attachment.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	rows, err := h.exportRows(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for _, r := range rows {
		writer.Write([]string{r.kind, r.category, r.amount, r.description, r.date})
	}
}

// ExportXLSX writes all transactions as an XLSX attachment.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	rows, err := h.exportRows(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	f := excelize.NewFile()
	sheetName := "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
	for idx, r := range rows {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.kind)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.category)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.description)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.date)
	}

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 15)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 30)
	f.SetColWidth(sheetName, "E", "E", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
