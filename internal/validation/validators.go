package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	clockPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
)

// genericLabels are placeholder values a model echoes back instead of real
// field content
var genericLabels = map[string]struct{}{
	"project":      {},
	"проект":       {},
	"task":         {},
	"задача":       {},
	"работа":       {},
	"description":  {},
	"описание":     {},
	"unknown":      {},
	"неизвестно":   {},
	"n/a":          {},
	"none":         {},
	"null":         {},
	"<project>":    {},
	"<task>":       {},
	"project name": {},
}

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("notgeneric", validateNotGeneric); err != nil {
		panic(fmt.Sprintf("failed to register notgeneric validator: %v", err))
	}
	if err := Validate.RegisterValidation("hhmm", validateClock); err != nil {
		panic(fmt.Sprintf("failed to register hhmm validator: %v", err))
	}
}

// validateNotGeneric rejects field labels and placeholders used as values
func validateNotGeneric(fl validator.FieldLevel) bool {
	return !IsGeneric(fl.Field().String())
}

// validateClock accepts a 24-hour H:MM or HH:MM clock
func validateClock(fl validator.FieldLevel) bool {
	return clockPattern.MatchString(fl.Field().String())
}

// IsGeneric reports whether value is empty or only a field label
func IsGeneric(value string) bool {
	v := strings.ToLower(strings.Trim(strings.TrimSpace(value), ".:;!?\"'"))
	if v == "" {
		return true
	}
	_, ok := genericLabels[v]
	return ok
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
