// Package i18n translates user-facing labels and feedback messages.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var bundle *i18n.Bundle

// Init loads every embedded locale. lang becomes the default language and must be one
// of them.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, f := range files {
		name := path.Join("locales", f.Name())
		if _, err := b.LoadMessageFileFS(localeFS, name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		slog.Debug("loaded locale file", "file", name)
	}

	if !supported(b, tag) {
		return fmt.Errorf("no translations for language %q", lang)
	}
	bundle = b
	return nil
}

func supported(b *i18n.Bundle, tag language.Tag) bool {
	base, _ := tag.Base()
	for _, t := range b.LanguageTags() {
		if tb, _ := t.Base(); tb == base {
			return true
		}
	}
	return false
}

// Languages lists the loaded languages.
func Languages() []string {
	var out []string
	for _, t := range bundle.LanguageTags() {
		out = append(out, t.String())
	}
	return out
}

// NewLocalizer creates a localizer for the given language.
func NewLocalizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, lang)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// localizerFromCtx falls back to the bundle's default language.
func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return i18n.NewLocalizer(bundle)
}

// localize returns the message ID itself when the translation is missing.
func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	s, err := localizerFromCtx(ctx).Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}

// T translates a message by ID.
func T(ctx context.Context, msgID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data. A "Count" entry in data also
// selects the plural form.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: msgID, TemplateData: data}
	if count, ok := data["Count"]; ok {
		cfg.PluralCount = count
	}
	return localize(ctx, cfg)
}

// Tp translates a pluralized message by ID.
func Tp(ctx context.Context, msgID string, count int) string {
	return Td(ctx, msgID, map[string]any{"Count": count})
}

// Status returns the label of a question or exam status such as "correct" or "reviewed".
func Status(ctx context.Context, status string) string {
	id, ok := statusIDs[status]
	if !ok {
		return status
	}
	return T(ctx, id)
}

var statusIDs = map[string]string{
	"unattempted":    "StatusUnattempted",
	"correct":        "StatusCorrect",
	"incorrect":      "StatusIncorrect",
	"review_later":   "StatusReviewLater",
	"evaluate_later": "StatusEvaluateLater",
	"active":         "ExamActive",
	"completed":      "ExamCompleted",
	"reviewed":       "ExamReviewed",
}
