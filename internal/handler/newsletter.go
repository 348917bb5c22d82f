package handler

import (
	"net/http"

	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) newsletterSubscribe(c *gin.Context) {
	var input dto.SubscribeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	if err := h.services.Newsletter.Subscribe(c.Request.Context(), input.Email); err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, "subscribed"))
}

// newsletterUnsubscribe accepts the email from the query string (unsubscribe links) or
// from a JSON/form body.
func (h *Handler) newsletterUnsubscribe(c *gin.Context) {
	var input dto.SubscribeRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	if err := h.services.Newsletter.Unsubscribe(c.Request.Context(), input.Email); err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, "unsubscribed"))
}
