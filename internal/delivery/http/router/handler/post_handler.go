package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"meets/internal/delivery/http/middleware"
	"meets/internal/delivery/http/response"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PostHandler holds dependencies for feed and like handlers.
type PostHandler struct {
	uc     usecase.PostUsecase
	logger *slog.Logger
}

// NewPostHandler is the constructor for PostHandler, injected by Fx.
func NewPostHandler(uc usecase.PostUsecase, logger *slog.Logger) *PostHandler {
	return &PostHandler{uc: uc, logger: logger}
}

type postRequest struct {
	Content  string `json:"content" validate:"required,max=5000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

// Create publishes a new post by the caller.
func (h *PostHandler) Create(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid post input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	post, err := h.uc.CreatePost(c.Request().Context(), usecase.CreatePostInput{
		AuthorID: userID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, post, "Post created")
}

// Update edits the caller's post.
func (h *PostHandler) Update(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	postID, err := pathPostID(c)
	if err != nil {
		return err
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid post input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	post, err := h.uc.UpdatePost(c.Request().Context(), usecase.UpdatePostInput{
		PostID:   postID,
		AuthorID: userID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, post, "Post updated")
}

// Delete removes the caller's post.
func (h *PostHandler) Delete(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	postID, err := pathPostID(c)
	if err != nil {
		return err
	}

	if err := h.uc.DeletePost(c.Request().Context(), postID, userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Post deleted"}, "Post deleted")
}

// Get returns a single post with the caller's like state.
func (h *PostHandler) Get(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	postID, err := pathPostID(c)
	if err != nil {
		return err
	}

	post, err := h.uc.GetPost(c.Request().Context(), postID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, post, "Post")
}

// Feed returns posts from the caller and the users they follow.
func (h *PostHandler) Feed(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	input := usecase.FeedInput{ViewerID: userID}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid limit")
		}
		input.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid offset")
		}
		input.Offset = offset
	}

	posts, err := h.uc.Feed(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, posts, "Feed")
}

// ByUser returns a user's posts, newest first.
func (h *PostHandler) ByUser(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	authorID, err := pathUserID(c)
	if err != nil {
		return err
	}

	posts, err := h.uc.PostsByUser(c.Request().Context(), authorID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, posts, "Posts")
}

// Like adds the caller's like to a post.
func (h *PostHandler) Like(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	postID, err := pathPostID(c)
	if err != nil {
		return err
	}

	if err := h.uc.Like(c.Request().Context(), postID, userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Liked"}, "Liked")
}

// Unlike removes the caller's like from a post.
func (h *PostHandler) Unlike(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	postID, err := pathPostID(c)
	if err != nil {
		return err
	}

	if err := h.uc.Unlike(c.Request().Context(), postID, userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Unliked"}, "Unliked")
}

func pathPostID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	return id, nil
}
