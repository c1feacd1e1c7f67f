package lang

import (
	"context"
	"strings"

	"github.com/nakurusafety/incident-analytics/internal/domain"
)

// TranslationService converts text between the supported languages. The
// implementation never returns an error; it degrades to the
// domain.TranslationUnavailable sentinel.
type TranslationService interface {
	Translate(ctx context.Context, text, source, target string) string
}

// Translator pairs language detection with the translation service for
// display-time convenience translation.
type Translator struct {
	service  TranslationService
	detector *Detector
}

// NewTranslator creates a Translator.
func NewTranslator(service TranslationService, detector *Detector) *Translator {
	return &Translator{service: service, detector: detector}
}

// TranslateText translates text into the target language, detecting the
// source first. Blank text and same-language requests pass through
// unchanged.
func (t *Translator) TranslateText(ctx context.Context, text, targetLang string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	target := domain.LanguageCode(targetLang)
	source := t.detector.Detect(ctx, text)
	if source == target {
		return text
	}

	return t.service.Translate(ctx, text, source, target)
}

// TranslateFields translates every non-empty field value, keeping the
// original value for any field the service cannot translate. Translation
// is a display convenience: a partial result beats none.
func (t *Translator) TranslateFields(ctx context.Context, fields map[string]string, targetLang string) map[string]string {
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		if value == "" {
			out[key] = value
			continue
		}
		translated := t.TranslateText(ctx, value, targetLang)
		if translated == domain.TranslationUnavailable {
			out[key] = value
			continue
		}
		out[key] = translated
	}
	return out
}
