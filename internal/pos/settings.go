package pos

import (
	"regexp"
	"strings"

	"restoran-pos/internal/apperr"
	"restoran-pos/internal/models"
)

var themePattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validSettings(s models.StoreSettings) (models.StoreSettings, error) {
	s.StoreName = strings.TrimSpace(s.StoreName)
	if s.StoreName == "" {
		return models.StoreSettings{}, apperr.Validation("store name is required")
	}
	if !themePattern.MatchString(s.Theme) {
		return models.StoreSettings{}, apperr.Validation("theme must be a #rrggbb colour, got %q", s.Theme)
	}
	return s, nil
}
