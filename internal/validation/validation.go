package validation

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

// ErrLanguageEmpty is returned when the language code is empty or whitespace-only.
var ErrLanguageEmpty = errors.New("language is required")

// ErrLanguageUnsupported is returned when the code is not one of the selector options.
var ErrLanguageUnsupported = errors.New("unsupported language")

// ErrTabUnknown is returned for a tab id outside the five dashboard tabs.
var ErrTabUnknown = errors.New("unknown tab")

// ErrSessionIDInvalid is returned when a session id is not a UUID.
var ErrSessionIDInvalid = errors.New("invalid session id")

// Tab ids in display order.
const (
	TabAdvisory = "advisory"
	TabPest     = "pest"
	TabWeather  = "weather"
	TabMarket   = "market"
	TabChat     = "chat"
)

// Tabs lists the tab ids in display order.
var Tabs = []string{TabAdvisory, TabPest, TabWeather, TabMarket, TabChat}

// ValidateLanguage trims and lowercases input and checks it against the
// supported options. Returns the canonical code.
func ValidateLanguage(input string, supported []models.Language) (string, error) {
	code := strings.ToLower(strings.TrimSpace(input))
	if code == "" {
		return "", ErrLanguageEmpty
	}
	for _, l := range supported {
		if l.Code == code {
			return code, nil
		}
	}
	return "", ErrLanguageUnsupported
}

// ValidateTab returns the canonical tab id for input.
func ValidateTab(input string) (string, error) {
	tab := strings.ToLower(strings.TrimSpace(input))
	for _, t := range Tabs {
		if t == tab {
			return tab, nil
		}
	}
	return "", ErrTabUnknown
}

// ValidateSessionID parses input as a UUID and returns its canonical string form.
func ValidateSessionID(input string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return "", ErrSessionIDInvalid
	}
	return id.String(), nil
}
