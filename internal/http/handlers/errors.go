package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/resourcehub-backend/internal/domain/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/http/response"
	"github.com/yungbote/resourcehub-backend/internal/platform/apierr"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

const genericFailure = "something went wrong, please try again"

// respondErr maps service and aggregate failures onto the response envelope.
// Anything unrecognized is logged and reported with one generic message.
func respondErr(c *gin.Context, log *logger.Logger, op string, err error) {
	if ae, ok := apierr.As(err); ok {
		response.RespondError(c, ae.Status, ae.Code, ae.Err, ae.Path...)
		return
	}
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("unauthorized"))
		return
	case errors.Is(err, services.ErrQuotaExceeded):
		response.RespondError(c, http.StatusForbidden, "quota_exceeded", err)
		return
	case errors.Is(err, services.ErrVectorSyncDisabled), errors.Is(err, services.ErrSearchDisabled):
		response.RespondError(c, http.StatusServiceUnavailable, "unavailable", err)
		return
	case errors.Is(err, services.ErrModelRejected):
		log.Error(op+" model call failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", errors.New(genericFailure))
		return
	case errors.Is(err, context.Canceled):
		c.Abort()
		return
	}

	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		response.RespondError(c, http.StatusBadRequest, "validation_failed", messageOf(err), domainagg.FieldsOf(err)...)
		return
	case domainagg.CodeNotFound, domainagg.CodePreconditionFailed:
		response.RespondError(c, http.StatusNotFound, "not_found", messageOf(err), domainagg.FieldsOf(err)...)
		return
	case domainagg.CodeConflict:
		response.RespondError(c, http.StatusBadRequest, "conflict", messageOf(err), domainagg.FieldsOf(err)...)
		return
	case domainagg.CodeRetryable:
		log.Warn(op+" retryable failure", "error", err)
		response.RespondError(c, http.StatusServiceUnavailable, "retryable", errors.New(genericFailure))
		return
	}

	log.Error(op+" failed", "error", err)
	response.RespondError(c, http.StatusInternalServerError, "internal", errors.New(genericFailure))
}

var codeMessages = map[domainagg.ErrorCode]string{
	domainagg.CodeValidation:         "invalid input",
	domainagg.CodeNotFound:           "not found",
	domainagg.CodePreconditionFailed: "referenced record not found",
	domainagg.CodeConflict:           "already exists",
}

// messageOf returns the innermost aggregate message. Messages copied from a
// raw driver error are replaced with a fixed per-code message.
func messageOf(err error) error {
	var msg string
	code := domainagg.CodeOf(err)
	for err != nil {
		var aggErr *domainagg.Error
		if !errors.As(err, &aggErr) {
			break
		}
		var inner *domainagg.Error
		if aggErr.Cause == nil || !errors.As(aggErr.Cause, &inner) {
			if aggErr.Cause == nil {
				msg = aggErr.Message
			}
			break
		}
		err = aggErr.Cause
	}
	if msg == "" {
		msg = codeMessages[code]
	}
	if msg == "" {
		msg = genericFailure
	}
	return errors.New(msg)
}
