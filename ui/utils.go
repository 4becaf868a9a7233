package ui

import (
	"strconv"
	"strings"

	"hyperleaf/app"
	"hyperleaf/internal/errors"
	"hyperleaf/internal/i18n"
	"hyperleaf/models"
)

// parseScope reads ?owner=. Empty means every owner.
func parseScope(raw string) (models.HistoryScope, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Unscoped, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return models.Unscoped, errors.InvalidInput("owner must be a user id")
	}
	return models.HistoryScope(id), nil
}

// scopeLabel names the listed owner, falling back to the numeric id
func scopeLabel(loc *i18n.Localizer, browser *app.HistoryBrowser) string {
	scope := browser.Scope()
	if !scope.IsSet() {
		return loc.T("viewing_all")
	}
	name := "#" + strconv.FormatInt(int64(scope), 10)
	for _, o := range browser.Owners() {
		if o.ID == int64(scope) {
			name = o.Username
			break
		}
	}
	return loc.Tf("viewing_owner", map[string]string{"owner": name})
}
