package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boardbank/boardbank/internal/ledger"
)

// RegisterTransactionRoutes wires all money-moving endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *ledger.Handler) {
	r.Post("/transfers", h.Transfer)
	r.Post("/transfers/requests", h.RequestTransfer)
	r.Post("/transfers/requests/:transactionId/settle", h.Settle)

	r.Post("/bank/debits", h.RequestBankDebit)
	r.Post("/bank/debits/:transactionId/pay", h.PayBankDebit)
	r.Post("/bank/credits", h.BankCredit)
	r.Post("/bank/bonuses", h.Bonus)
	r.Post("/bank/fines", h.Fine)

	r.Post("/wallets/:walletId/initial-credit", h.InitialCredit)
	r.Post("/sessions/:sessionId/initial-credit", h.DistributeInitialCredit)

	r.Get("/sessions/:sessionId/transactions", h.SessionHistory)
}
