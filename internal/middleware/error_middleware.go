package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unisphere-scheduler/internal/app/models/dto"
	"github.com/yigit/unisphere-scheduler/internal/pkg/apperrors"
	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
)

// HandleAPIError maps service errors to a status code and an error envelope.
// Infeasible sections are part of a successful result and never reach here.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classifyError(err)

	var custom *apperrors.CustomError
	if errors.As(err, &custom) {
		if field, ok := custom.Details["field"].(string); ok {
			detail = detail.WithField(field)
		}
		if custom.StatusMsg != "" {
			detail.Message = custom.StatusMsg
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func classifyError(err error) (int, *dto.ErrorDetail) {
	switch {
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrScheduleRunInProgress):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeScheduleLocked, "A schedule run for this term is already in progress").
			WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrScheduleCommitFailed):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeScheduleCommitFailed, "The schedule could not be saved; nothing was changed, please retry").
			WithSeverity(dto.ErrorSeverityCritical)
	case errors.Is(err, apperrors.ErrRunCanceled):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeScheduleRunCanceled, "The schedule run was canceled; nothing was changed")
	case errors.Is(err, apperrors.ErrRunTimedOut):
		return http.StatusGatewayTimeout, dto.NewErrorDetail(dto.ErrorCodeScheduleRunTimedOut, "The schedule run hit its time limit before any section was placed; nothing was changed")
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists")
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Conflict")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrInvalidFormat, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
