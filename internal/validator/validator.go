// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("broker_source", validateBrokerSource)
		_ = v.RegisterValidation("import_mode", validateImportMode)
		_ = v.RegisterValidation("refresh_mode", validateRefreshMode)
		_ = v.RegisterValidation("month", validateMonth)
	}
}

func validateBrokerSource(fl validator.FieldLevel) bool {
	_, ok := models.ParseSource(fl.Field().String())
	return ok
}

func validateImportMode(fl validator.FieldLevel) bool {
	switch models.ImportMode(strings.ToLower(fl.Field().String())) {
	case models.ImportModeReplace, models.ImportModeAppend:
		return true
	}
	return false
}

func validateRefreshMode(fl validator.FieldLevel) bool {
	switch models.RefreshMode(strings.ToLower(fl.Field().String())) {
	case models.RefreshModeFull, models.RefreshModeRetry:
		return true
	}
	return false
}

// validateMonth accepts ints in [1,12]. Zero is left to omitempty.
func validateMonth(fl validator.FieldLevel) bool {
	m := fl.Field().Int()
	return m >= 1 && m <= 12
}
