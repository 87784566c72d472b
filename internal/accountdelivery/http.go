// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, userID int64) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Delete(ctx context.Context, id int64) error
}

// UserGetter provides the owner of an account.
type UserGetter interface {
	Get(ctx context.Context, id int64) (domain.User, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
	users   UserGetter
}

// NewHandler returns account handler.
func NewHandler(as Service, ug UserGetter) Handler {
	return Handler{service: as, users: ug}
}

type accountResponse struct {
	domain.Account
	Username string `json:"username"`
}

func respondError(gctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrAccountLimit), errors.Is(err, domain.ErrInvalidOperation):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

// withOwner adds the owner's username. Accounts of a deleted user keep an empty one.
func (h *Handler) withOwner(ctx context.Context, a domain.Account) (accountResponse, error) {
	u, err := h.users.Get(ctx, a.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return accountResponse{}, err
	}

	return accountResponse{Account: a, Username: u.Username}, nil
}

type createRequest struct {
	UserID int64 `form:"user_id" binding:"required,min=1"`
}

// Create handles http request to create account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	createdAccount, err := h.service.Create(ctx, req.UserID)
	if err != nil {
		respondError(gctx, err)
		return
	}

	res, err := h.withOwner(ctx, createdAccount)
	if err != nil {
		l.Error().Err(err).Send()
		respondError(gctx, err)

		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: res})
}

type getRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get account with its owner's username.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	acc, err := h.service.Get(ctx, req.ID)
	if err != nil {
		respondError(gctx, err)
		return
	}

	res, err := h.withOwner(ctx, acc)
	if err != nil {
		l.Error().Err(err).Send()
		respondError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: res})
}

// List handles http request to list all accounts.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	accounts, err := h.service.List(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		respondError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accounts})
}

// Delete handles http request to delete account.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	if err := h.service.Delete(ctx, req.ID); err != nil {
		respondError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}
