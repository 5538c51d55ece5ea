package handler

import (
	"errors"
	"net/http"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// StatusCode maps a domain error to its HTTP status
func StatusCode(err error) int {
	switch {
	case errs.IsNotFoundError(err):
		return http.StatusNotFound
	case errs.IsInsufficientFundsError(err), errs.IsValidationError(err):
		return http.StatusBadRequest
	case errs.IsConflictError(err):
		return http.StatusConflict
	case errs.IsStorageUnavailableError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the message shown to API clients. Internal details never leak.
func publicMessage(err error) string {
	switch {
	case errs.IsInsufficientFundsError(err):
		return "Insufficient balance"
	case errors.Is(err, errs.ErrWalletNotFound):
		return "Wallet not found"
	case errors.Is(err, errs.ErrUserNotFound):
		return "User not found"
	case errs.IsNotFoundError(err):
		return "Resource not found"
	case errs.IsValidationError(err):
		var walletErr *errs.WalletError
		if errors.As(err, &walletErr) {
			return walletErr.Err.Error()
		}
		return err.Error()
	case errs.IsConflictError(err):
		return "Concurrent update, please retry"
	case errs.IsStorageUnavailableError(err):
		return "Service temporarily unavailable"
	default:
		return "Internal server error"
	}
}

// respondError writes the error body for err and logs server-side failures
func respondError(c *gin.Context, logger coreport.Logger, message string, err error) {
	status := StatusCode(err)

	fields := errs.Fields(err)
	fields["path"] = c.FullPath()
	fields["status"] = status
	if status >= http.StatusInternalServerError {
		logger.Error(message, fields)
	} else {
		logger.Debug(message, fields)
	}

	_ = c.Error(err)
	c.JSON(status, dto.ErrorResponse{
		Code:    errs.ErrorCode(err),
		Message: publicMessage(err),
	})
}

// badRequest rejects a malformed body before it reaches a use case
func badRequest(c *gin.Context, logger coreport.Logger, err error) {
	logger.Debug("Invalid request body", map[string]any{
		"path":  c.FullPath(),
		"error": err.Error(),
	})
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:    errs.CodeInvalidInput,
		Message: "Invalid request format: " + err.Error(),
	})
}
