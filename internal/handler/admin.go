package handler

import (
	"net/http"

	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) adminGetPosts(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PostsResponse{
		Posts: h.services.Post.GetAllPosts(),
		Error: h.services.Post.LoadError(),
	})
}

func (h *Handler) adminStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Post.Stats())
}

func (h *Handler) adminCreatePost(c *gin.Context) {
	user := h.getUserFromRequest(c)

	var input dto.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	createdPost, err := h.services.Post.Create(c.Request.Context(), user, input)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createdPost)
}

func (h *Handler) adminUpdatePost(c *gin.Context) {
	user := h.getUserFromRequest(c)

	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var input dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	post, err := h.services.Post.Update(c.Request.Context(), user, postID, input)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *Handler) adminDeletePost(c *gin.Context) {
	user := h.getUserFromRequest(c)

	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	if err := h.services.Post.Delete(c.Request.Context(), user, postID); err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) adminToggleRecommendation(c *gin.Context) {
	user := h.getUserFromRequest(c)

	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.services.Post.ToggleRecommendation(c.Request.Context(), user, postID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}
