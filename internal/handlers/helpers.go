package handlers

import (
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
	"github.com/dobashik/cashflow-maker-web/internal/models"
)

// maxUploadBytes bounds uploaded CSV files.
const maxUploadBytes = 10 << 20

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// FailureResponse is the error response of import and refresh operations,
// which report an outcome flag alongside the error.
type FailureResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   ErrorDetail `json:"error"`
}

// getOwnerID extracts the authenticated owner ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getOwnerID(c *gin.Context) (string, error) {
	ownerID := c.GetString("ownerID")
	if ownerID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return ownerID, nil
}

// parseSource resolves an optional broker name. An empty value yields "".
func parseSource(raw string) (models.Source, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	src, ok := models.ParseSource(raw)
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("Unknown source %q (use SBI or Rakuten)", raw))
	}
	return src, nil
}

// parseMode resolves the import mode, defaulting to replace.
func parseMode(raw string) (models.ImportMode, error) {
	switch mode := models.ImportMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return models.ImportModeReplace, nil
	case models.ImportModeReplace, models.ImportModeAppend:
		return mode, nil
	}
	return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Mode must be replace or append")
}

// readUpload reads the multipart file field, enforcing maxUploadBytes.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "A CSV file is required in the '"+field+"' field")
	}
	f, err := header.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	if len(raw) > maxUploadBytes {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "File exceeds the 10MB limit")
	}
	return raw, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	appErr := toAppError(c, err)
	c.JSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// respondWithFailure is respondWithError for import and refresh outcomes.
func respondWithFailure(c *gin.Context, err error) {
	appErr := toAppError(c, err)
	c.JSON(appErr.StatusCode, gin.H{
		"success": false,
		"message": appErr.Message,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

func toAppError(c *gin.Context, err error) *apperrors.AppError {
	appErr := apperrors.Classify(err)
	if appErr.Internal != nil {
		logger.Get().Errorw("request failed",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
	}
	return appErr
}
