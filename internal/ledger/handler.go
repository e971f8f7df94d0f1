package ledger

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boardbank/boardbank/internal/wallet"
)

// Handler exposes the engine's operations over HTTP. It only translates
// payloads and result envelopes; every rule lives in the engine.
type Handler struct {
	engine  *Engine
	wallets wallet.Repository
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(engine *Engine, wallets wallet.Repository) *Handler {
	return &Handler{engine: engine, wallets: wallets}
}

// CallerKey is the fiber locals key under which the caller middleware
// stores the resolved Caller.
const CallerKey = "ledger_caller"

type transferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
}

type chargeRequest struct {
	ToWalletID  string `json:"to_wallet_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type bankDebitRequest struct {
	GameSessionID string `json:"game_session_id"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
}

type payRequest struct {
	FromWalletID string `json:"from_wallet_id"`
}

type adjustmentRequest struct {
	WalletID    string `json:"wallet_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// Transfer processes a direct wallet-to-wallet transfer.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	res, err := h.engine.Transfer(c.UserContext(), TransferInput{
		FromWalletID: parseID(req.FromWalletID),
		ToWalletID:   parseID(req.ToWalletID),
		Amount:       amount,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, res)
}

// RequestTransfer creates a pending Pix charge.
func (h *Handler) RequestTransfer(c *fiber.Ctx) error {
	var req chargeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	res, err := h.engine.RequestTransfer(c.UserContext(), RequestTransferInput{
		ToWalletID:  parseID(req.ToWalletID),
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, res)
}

// Settle binds the paying wallet to a pending charge.
func (h *Handler) Settle(c *fiber.Ctx) error {
	txID, err := pathID(c, "transactionId")
	if err != nil {
		return err
	}
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.engine.Settle(c.UserContext(), txID, parseID(req.FromWalletID))
	if err != nil {
		return err
	}
	return respond(c, res)
}

// RequestBankDebit creates a pending session-wide bank debit.
func (h *Handler) RequestBankDebit(c *fiber.Ctx) error {
	var req bankDebitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	res, err := h.engine.RequestBankDebit(c.UserContext(), BankDebitRequestInput{
		GameSessionID: parseID(req.GameSessionID),
		Amount:        amount,
		Description:   req.Description,
		Caller:        callerFrom(c),
	})
	if err != nil {
		return err
	}
	return respond(c, res)
}

// PayBankDebit settles a pending bank debit.
func (h *Handler) PayBankDebit(c *fiber.Ctx) error {
	txID, err := pathID(c, "transactionId")
	if err != nil {
		return err
	}
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.engine.PayBankDebit(c.UserContext(), txID, parseID(req.FromWalletID))
	if err != nil {
		return err
	}
	return respond(c, res)
}

// InitialCredit applies the starting credit to one wallet.
func (h *Handler) InitialCredit(c *fiber.Ctx) error {
	walletID, err := pathID(c, "walletId")
	if err != nil {
		return err
	}
	res, err := h.engine.ApplyInitialCredit(c.UserContext(), walletID)
	if err != nil {
		return err
	}
	return respond(c, res)
}

// DistributeInitialCredit applies the starting credit across every wallet
// of a session. Wallets already credited are counted as skipped rather than
// failing the whole distribution.
func (h *Handler) DistributeInitialCredit(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "sessionId")
	if err != nil {
		return err
	}
	if !callerFrom(c).IsBanker {
		return fiber.NewError(http.StatusForbidden, "only the banker can distribute the initial credit")
	}

	wallets, err := h.wallets.ListBySession(c.UserContext(), sessionID)
	if err != nil {
		return err
	}

	credited, skipped := 0, 0
	for _, w := range wallets {
		res, err := h.engine.ApplyInitialCredit(c.UserContext(), w.ID)
		if err != nil {
			return err
		}
		switch {
		case res.Success:
			credited++
		case res.AlreadyApplied():
			skipped++
		default:
			return c.Status(statusForKind(res.Kind)).JSON(fiber.Map{
				"success": false,
				"message": res.Message,
				"kind":    res.Kind,
			})
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":  true,
		"credited": credited,
		"skipped":  skipped,
	})
}

// BankCredit grants a bank credit to a wallet.
func (h *Handler) BankCredit(c *fiber.Ctx) error {
	return h.adjust(c, h.engine.GrantBankCredit)
}

// Bonus grants a bonus to a wallet.
func (h *Handler) Bonus(c *fiber.Ctx) error {
	return h.adjust(c, h.engine.GrantBonus)
}

// Fine imposes a fine on a wallet.
func (h *Handler) Fine(c *fiber.Ctx) error {
	return h.adjust(c, h.engine.ImposeFine)
}

func (h *Handler) adjust(c *fiber.Ctx, op func(ctx context.Context, input BankAdjustmentInput) (Result, error)) error {
	var req adjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	res, err := op(c.UserContext(), BankAdjustmentInput{
		WalletID:    parseID(req.WalletID),
		Amount:      amount,
		Description: req.Description,
		Caller:      callerFrom(c),
	})
	if err != nil {
		return err
	}
	return respond(c, res)
}

// SessionHistory lists a session's transactions; ?pending=true restricts to
// open requests.
func (h *Handler) SessionHistory(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "sessionId")
	if err != nil {
		return err
	}
	var txns []Transaction
	if c.QueryBool("pending") {
		txns, err = h.engine.PendingCharges(c.UserContext(), sessionID)
	} else {
		txns, err = h.engine.SessionHistory(c.UserContext(), sessionID)
	}
	if err != nil {
		return err
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toResponse(txn))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

type transactionResponse struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	FromWalletID  *string    `json:"from_wallet_id,omitempty"`
	ToWalletID    *string    `json:"to_wallet_id,omitempty"`
	Amount        string     `json:"amount"`
	Description   string     `json:"description,omitempty"`
	IsCompleted   bool       `json:"is_completed"`
	GameSessionID string     `json:"game_session_id"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func toResponse(txn Transaction) transactionResponse {
	resp := transactionResponse{
		ID:            txn.ID.String(),
		Type:          string(txn.Type),
		Amount:        txn.Amount.StringFixed(2),
		Description:   txn.Description,
		IsCompleted:   txn.IsCompleted,
		GameSessionID: txn.GameSessionID.String(),
		CreatedAt:     txn.CreatedAt,
		CompletedAt:   txn.CompletedAt,
	}
	if txn.FromWalletID != nil {
		s := txn.FromWalletID.String()
		resp.FromWalletID = &s
	}
	if txn.ToWalletID != nil {
		s := txn.ToWalletID.String()
		resp.ToWalletID = &s
	}
	return resp
}

func respond(c *fiber.Ctx, res Result) error {
	if !res.Success {
		return c.Status(statusForKind(res.Kind)).JSON(fiber.Map{
			"success": false,
			"message": res.Message,
			"kind":    res.Kind,
		})
	}
	body := fiber.Map{"success": true, "message": res.Message}
	if res.Transaction != nil {
		body["transaction"] = toResponse(*res.Transaction)
	}
	return c.Status(http.StatusCreated).JSON(body)
}

func statusForKind(kind FailureKind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict, KindAlreadyApplied:
		return http.StatusConflict
	case KindSessionInactive, KindInsufficientFunds, KindCrossSession:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func callerFrom(c *fiber.Ctx) Caller {
	caller, _ := c.Locals(CallerKey).(Caller)
	return caller
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fiber.NewError(http.StatusBadRequest, "amount must be a decimal number")
	}
	return amount, nil
}

// parseID maps malformed or absent ids to uuid.Nil; the engine reports the
// resulting not-found/required failure with its proper kind.
func parseID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func pathID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(http.StatusBadRequest, "invalid "+param)
	}
	return id, nil
}
