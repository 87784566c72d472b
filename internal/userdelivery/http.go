// Package userdelivery manages delivery layer of users.
package userdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by user delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package userdelivery
type Service interface {
	Create(ctx context.Context, username, email string, isCorporate bool) (domain.User, error)
	Get(ctx context.Context, id int64) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, arg domain.UpdateUserParams) (domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// AccountLister provides the accounts owned by a user.
type AccountLister interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Account, error)
}

// Handler facilitates user delivery layer logic.
type Handler struct {
	service  Service
	accounts AccountLister
}

// NewHandler returns user handler.
func NewHandler(us Service, al AccountLister) *Handler {
	return &Handler{
		service:  us,
		accounts: al,
	}
}

type userResponse struct {
	domain.User
	AccountCount int `json:"account_count"`
}

func respondError(gctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrDuplicateElement):
		gctx.JSON(http.StatusConflict, web.Error(err))
	case errors.Is(err, domain.ErrInvalidOperation):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

func (h *Handler) withAccountCount(ctx context.Context, u domain.User) (userResponse, error) {
	accounts, err := h.accounts.ListByUser(ctx, u.ID)
	if err != nil {
		return userResponse{}, err
	}

	return userResponse{User: u, AccountCount: len(accounts)}, nil
}

type createRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=20"`
	Email       string `json:"email" binding:"required,email"`
	IsCorporate bool   `json:"is_corporate"`
}

// Create handles http request to create user.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	createdUser, err := h.service.Create(ctx, req.Username, req.Email, req.IsCorporate)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: userResponse{User: createdUser}})
}

type idRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get user with its account count.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	u, err := h.service.Get(ctx, req.ID)
	if err != nil {
		respondError(gctx, err)
		return
	}

	res, err := h.withAccountCount(ctx, u)
	if err != nil {
		l.Error().Err(err).Send()
		respondError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: res})
}

// List handles http request to list all users.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	users, err := h.service.List(ctx)
	if err != nil {
		l.Error().Err(err).Send()
		respondError(gctx, err)

		return
	}

	items := make([]userResponse, 0, len(users))

	for _, u := range users {
		res, err := h.withAccountCount(ctx, u)
		if err != nil {
			l.Error().Err(err).Send()
			respondError(gctx, err)

			return
		}

		items = append(items, res)
	}

	gctx.JSON(http.StatusOK, web.Response{Data: items})
}

type updateRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=20"`
	Email       string `json:"email" binding:"required,email"`
	IsCorporate bool   `json:"is_corporate"`
}

// Update handles http request to replace user data.
func (h *Handler) Update(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri idRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	var req updateRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	arg := domain.UpdateUserParams{
		Username:    req.Username,
		Email:       req.Email,
		IsCorporate: req.IsCorporate,
	}

	u, err := h.service.Update(ctx, uri.ID, arg)
	if err != nil {
		respondError(gctx, err)
		return
	}

	res, err := h.withAccountCount(ctx, u)
	if err != nil {
		l.Error().Err(err).Send()
		respondError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: res})
}

// Delete handles http request to delete user. Its accounts are kept.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req idRequest
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

// ListAccounts handles http request to list accounts of an existing user.
func (h *Handler) ListAccounts(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	if _, err := h.service.Get(ctx, req.ID); err != nil {
		respondError(gctx, err)
		return
	}

	accounts, err := h.accounts.ListByUser(ctx, req.ID)
	if err != nil {
		l.Error().Err(err).Send()
		respondError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accounts})
}
