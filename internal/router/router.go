package router

import (
	"github.com/iamnotbasant/basantmoney-sub000/internal/config"
	"github.com/iamnotbasant/basantmoney-sub000/internal/events"
	"github.com/iamnotbasant/basantmoney-sub000/internal/handler"
	"github.com/iamnotbasant/basantmoney-sub000/internal/middleware"
	"github.com/iamnotbasant/basantmoney-sub000/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and wires every API route.
func SetupRouter(cfg *config.Config, db *gorm.DB, bus *events.Bus) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	st := store.New(db)

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret

	// register/login do not require a token
	authHandler := handler.NewAuthHandler(db, st, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/me", handler.GetMe)
	protected.POST("/profile", handler.UpdateProfile(db))
	protected.POST("/profile/password", handler.ChangePassword(db))

	walletHandler := handler.NewWalletHandler(db, st, bus)
	protected.GET("/wallets", walletHandler.ListWallets)
	protected.POST("/subwallets", walletHandler.CreateSubWallet)
	protected.PUT("/subwallets/:id", walletHandler.UpdateSubWallet)
	protected.DELETE("/subwallets/:id", walletHandler.DeleteSubWallet)
	protected.POST("/transfers", walletHandler.Transfer)

	distributionHandler := handler.NewDistributionHandler(db, bus)
	protected.GET("/distribution", distributionHandler.GetDistribution)
	protected.PUT("/distribution", distributionHandler.UpdateDistribution)

	incomeHandler := handler.NewIncomeHandler(db, st, bus)
	protected.POST("/incomes", incomeHandler.CreateIncome)
	protected.GET("/incomes", incomeHandler.ListIncomes)
	protected.PUT("/incomes/:id", incomeHandler.UpdateIncome)
	protected.DELETE("/incomes/:id", incomeHandler.DeleteIncome)

	expenseHandler := handler.NewExpenseHandler(db, st, bus)
	protected.POST("/expenses", expenseHandler.CreateExpense)
	protected.GET("/expenses", expenseHandler.ListExpenses)
	protected.PUT("/expenses/:id", expenseHandler.UpdateExpense)
	protected.DELETE("/expenses/:id", expenseHandler.DeleteExpense)

	udaarHandler := handler.NewUdaarHandler(db, bus)
	protected.POST("/udaar", udaarHandler.CreateUdaar)
	protected.GET("/udaar", udaarHandler.ListUdaar)
	protected.GET("/udaar/history", udaarHandler.ListHistory)
	protected.POST("/udaar/settle", udaarHandler.SettleAll)
	protected.PUT("/udaar/:id", udaarHandler.UpdateUdaar)
	protected.POST("/udaar/:id/payments", udaarHandler.RecordPayment)
	protected.POST("/udaar/:id/paid", udaarHandler.MarkPaid)
	protected.DELETE("/udaar/:id", udaarHandler.DeleteUdaar)

	reportHandler := handler.NewReportHandler(db, st)
	protected.GET("/reports/monthly", reportHandler.GetMonthlyReport)
	protected.GET("/reports/budget", reportHandler.GetBudgetOverview)

	exportHandler := handler.NewExportHandler(db)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	eventsHandler := handler.NewEventsHandler(bus)
	protected.GET("/events", eventsHandler.Stream)

	return r
}
