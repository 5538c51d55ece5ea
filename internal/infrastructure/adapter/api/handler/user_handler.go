package handler

import (
	"net/http"

	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	provisioning usecase.ProvisioningUseCase
	query        usecase.QueryUseCase
	logger       coreport.Logger
}

// NewUserHandler creates a new user handler instance
func NewUserHandler(
	provisioning usecase.ProvisioningUseCase,
	query usecase.QueryUseCase,
	logger coreport.Logger,
) *UserHandler {
	return &UserHandler{
		provisioning: provisioning,
		query:        query,
		logger:       logger,
	}
}

// Provision handles POST /users. It answers 201 when the user was created and
// 200 when it already existed.
func (h *UserHandler) Provision(c *gin.Context) {
	var req dto.ProvisionUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	result, err := h.provisioning.Provision(c.Request.Context(), usecase.ProvisionRequest{
		ExternalID:  req.Identity(),
		Email:       req.Email,
		DisplayName: req.Username,
	})
	if err != nil {
		respondError(c, h.logger, "Error provisioning user", err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewUserResponse(result.User))
}

// GetUser handles GET /users/:externalId
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.query.GetUserView(c.Request.Context(), c.Param("externalId"))
	if err != nil {
		respondError(c, h.logger, "Error getting user", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
