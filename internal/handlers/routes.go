package handlers

import (
	"github.com/gin-gonic/gin"

	"ledger/internal/services"
)

// RegisterRoutes mounts the ledger API on rg.
func RegisterRoutes(rg *gin.RouterGroup, ledgerService services.LedgerServicer, auditService services.AuditServicer) {
	commodityHandler := NewCommodityHandler(ledgerService)
	accountHandler := NewAccountHandler(ledgerService)
	transactionHandler := NewTransactionHandler(ledgerService, auditService)
	lotHandler := NewLotHandler(ledgerService)
	priceHandler := NewPriceHandler(ledgerService)

	commodities := rg.Group("/commodities")
	commodities.POST("", commodityHandler.CreateCommodity)
	commodities.GET("", commodityHandler.ListCommodities)
	commodities.GET("/lookup", commodityHandler.LookupCommodity)

	accounts := rg.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)

	transactions := rg.Group("/transactions")
	transactions.POST("", transactionHandler.PostTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.GET("/:id/audit", transactionHandler.GetTransactionAudit)

	lots := rg.Group("/lots")
	lots.POST("", lotHandler.CreateLot)
	lots.GET("/:id", lotHandler.GetLot)
	lots.POST("/:id/finalize", lotHandler.FinalizeLot)

	prices := rg.Group("/prices")
	prices.POST("", priceHandler.AddPrice)
	prices.GET("", priceHandler.PriceHistory)
	prices.GET("/latest", priceHandler.LatestPrice)
	prices.GET("/convert", priceHandler.Convert)
	prices.POST("/refresh", priceHandler.RefreshPrices)
}
