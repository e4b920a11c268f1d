package handler

import (
	"log/slog"
	"net/http"

	"meets/internal/delivery/http/middleware"
	"meets/internal/delivery/http/response"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for user, profile and follow handlers.
type UserHandler struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{uc: uc, logger: logger}
}

type upsertProfileRequest struct {
	Name    string `json:"name" validate:"omitempty,min=1,max=100"`
	Picture string `json:"picture" validate:"omitempty,url"`
	Bio     string `json:"bio" validate:"max=500"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// CurrentUser returns the signed-in user's basic information.
func (h *UserHandler) CurrentUser(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.uc.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}, "Current user")
}

// GetProfile returns a user's public profile with its counters.
func (h *UserHandler) GetProfile(c echo.Context) error {
	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}

	profile, err := h.uc.GetProfile(c.Request().Context(), targetID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, profile, "Profile")
}

// UpsertProfile creates or updates the caller's own profile.
func (h *UserHandler) UpsertProfile(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}
	if targetID != userID {
		return response.Forbidden(c, "FORBIDDEN", "Cannot edit another user's profile")
	}

	var req upsertProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	profile, err := h.uc.UpsertProfile(c.Request().Context(), usecase.UpsertProfileInput{
		UserID:  userID,
		Name:    req.Name,
		Picture: req.Picture,
		Bio:     req.Bio,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, profile, "Profile saved")
}

// Search returns users whose name contains the query.
func (h *UserHandler) Search(c echo.Context) error {
	summaries, err := h.uc.SearchUsers(c.Request().Context(), c.Param("query"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, summaries, "Search results")
}

// Follow adds a follow edge from the caller to the target user.
func (h *UserHandler) Follow(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}

	if err := h.uc.Follow(c.Request().Context(), userID, targetID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Following"}, "Following")
}

// Unfollow removes the follow edge from the caller to the target user.
func (h *UserHandler) Unfollow(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}

	if err := h.uc.Unfollow(c.Request().Context(), userID, targetID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Unfollowed"}, "Unfollowed")
}

// IsFollowing reports whether the caller follows the target user.
func (h *UserHandler) IsFollowing(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}

	following, err := h.uc.IsFollowing(c.Request().Context(), userID, targetID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]bool{"following": following}, "Follow state")
}

// Followers lists the users following the target user.
func (h *UserHandler) Followers(c echo.Context) error {
	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}

	summaries, err := h.uc.Followers(c.Request().Context(), targetID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, summaries, "Followers")
}

// Following lists the users the target user follows.
func (h *UserHandler) Following(c echo.Context) error {
	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}

	summaries, err := h.uc.Following(c.Request().Context(), targetID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, summaries, "Following")
}

// DeleteAccount removes the caller's account after password confirmation.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}
	if targetID != userID {
		return response.Forbidden(c, "FORBIDDEN", "Cannot delete another user's account")
	}

	var req deleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid delete input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	err = h.uc.DeleteAccount(c.Request().Context(), usecase.DeleteAccountInput{
		UserID:   userID,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Account deleted"}, "Account deleted")
}

func pathUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	return id, nil
}
