package handler

import (
	"fmt"
	"net/http"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// WalletHandler handles balance changes and history of a wallet
type WalletHandler struct {
	balance usecase.BalanceUseCase
	query   usecase.QueryUseCase
	logger  coreport.Logger
}

// NewWalletHandler creates a new wallet handler instance
func NewWalletHandler(
	balance usecase.BalanceUseCase,
	query usecase.QueryUseCase,
	logger coreport.Logger,
) *WalletHandler {
	return &WalletHandler{
		balance: balance,
		query:   query,
		logger:  logger,
	}
}

// SetBalance handles PATCH /wallets/:walletId
func (h *WalletHandler) SetBalance(c *gin.Context) {
	var req dto.SetBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	if !req.Balance.Valid {
		respondError(c, h.logger, "Invalid balance override", fmt.Errorf("%w: balance is required", errs.ErrInvalidAmount))
		return
	}

	target, err := entity.BalanceFromDecimal(req.Balance.Decimal)
	if err != nil {
		respondError(c, h.logger, "Invalid balance override", err)
		return
	}

	result, err := h.balance.SetBalance(c.Request.Context(), c.Param("walletId"), target)
	if err != nil {
		respondError(c, h.logger, "Error setting balance", err)
		return
	}

	resp := dto.SetBalanceResponse{WalletResponse: dto.NewWalletResponse(result.Wallet)}
	if result.Adjustment != nil {
		adjustment := dto.NewTransactionResponse(result.Adjustment)
		resp.Adjustment = &adjustment
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTransaction handles POST /wallets/:walletId/transactions
func (h *WalletHandler) CreateTransaction(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	kind, err := entity.ParseTransactionKind(req.Type)
	if err != nil {
		respondError(c, h.logger, "Invalid transaction", err)
		return
	}
	if !req.Amount.Valid {
		respondError(c, h.logger, "Invalid transaction", fmt.Errorf("%w: amount is required", errs.ErrInvalidAmount))
		return
	}
	amount, err := entity.AmountFromDecimal(req.Amount.Decimal)
	if err != nil {
		respondError(c, h.logger, "Invalid transaction", err)
		return
	}

	result, err := h.balance.ApplyTransaction(c.Request.Context(), usecase.ApplyTransactionRequest{
		WalletID: c.Param("walletId"),
		Kind:     kind,
		Amount:   amount,
		Category: req.Category,
	})
	if err != nil {
		respondError(c, h.logger, "Error applying transaction", err)
		return
	}

	c.JSON(http.StatusCreated, dto.AppliedTransactionResponse{
		TransactionResponse: dto.NewTransactionResponse(result.Transaction),
		Balance:             result.Wallet.FormattedBalance(),
		BalanceMinor:        result.Wallet.Balance(),
	})
}

// GetHistory handles GET /wallets/:walletId/transactions
func (h *WalletHandler) GetHistory(c *gin.Context) {
	history, err := h.query.GetHistory(c.Request.Context(), c.Param("walletId"))
	if err != nil {
		respondError(c, h.logger, "Error getting transaction history", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionList(history))
}
