package handler

import (
	"net/http"

	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) authSignUp(c *gin.Context) {
	var input dto.SignUpRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	resp, err := h.services.Session.SignUp(c.Request.Context(), input)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) authSignIn(c *gin.Context) {
	var input dto.SignInRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	resp, err := h.services.Session.SignIn(c.Request.Context(), input)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) authFederated(c *gin.Context) {
	var input dto.FederatedSignInRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	resp, err := h.services.Session.SignInFederated(c.Request.Context(), input.IDToken)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) authSignOut(c *gin.Context) {
	accessToken := bearerToken(c)
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return
	}

	if err := h.services.Session.SignOut(c.Request.Context(), accessToken); err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) authMe(c *gin.Context) {
	c.JSON(http.StatusOK, h.getUserFromRequest(c))
}
