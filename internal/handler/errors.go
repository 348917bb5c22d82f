package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/BloggingApp/writerspace/internal/service"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	errNotAuthorized   = errors.New("user is not authorized")
	errNoAccess        = errors.New("no access")
	errInvalidPostID   = errors.New("invalid post ID")
	errInvalidCategory = errors.New("category must be blog or poetry")
	errTooManyRequests = errors.New("rate limit exceeded, please try again later")
	errNoDevice        = errors.New("failed to identify device")
)

func statusFor(err error) int {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrReactionFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrFederatedDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), dto.NewBasicResponse(false, err.Error()))
}
