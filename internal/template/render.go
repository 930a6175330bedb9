// Package template implements the minimal ((placeholder)) substitution the
// admin core needs for upload validation and notification previews. Full
// message rendering for sending happens elsewhere.
package template

import (
	"regexp"
	"strings"

	"github.com/GSA/notifications-admin-sub001/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\(\(([^()]+)\)\)`)

// Placeholders returns the distinct placeholder names in template content,
// in order of first occurrence.
func Placeholders(content string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(match[1])
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Render substitutes personalisation values into template content.
// Placeholders with no matching value render as empty strings.
func Render(content string, personalisation map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := strings.TrimSpace(placeholderPattern.FindStringSubmatch(match)[1])
		for key, value := range personalisation {
			if strings.EqualFold(strings.TrimSpace(key), name) {
				return value
			}
		}
		return ""
	})
}

// Preview derives the one-line listing preview for a notification: the
// rendered SMS body for SMS templates, the rendered subject for email.
func Preview(tmpl model.Template, personalisation map[string]string) string {
	if tmpl.Type == model.TemplateTypeEmail {
		return Render(tmpl.Subject, personalisation)
	}
	return Render(tmpl.Content, personalisation)
}
