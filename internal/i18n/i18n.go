// Package i18n provides internationalization support for the patchwork service.
// It handles translation of user-facing error messages.
package i18n

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLocale is the default language locale (English).
	DefaultLocale = "en"
	// AcceptLanguageHeader is the HTTP header name for language preference.
	AcceptLanguageHeader = "Accept-Language"
)

var (
	// defaultTranslator is the singleton translator instance.
	defaultTranslator *Translator
	translatorOnce    sync.Once
)

// Translator handles message translation for different locales.
type Translator struct {
	messages map[string]map[string]string
}

// NewTranslator creates a new translator with the default messages.
func NewTranslator() *Translator {
	return &Translator{
		messages: defaultMessages,
	}
}

// GetTranslator returns the default singleton translator instance.
func GetTranslator() *Translator {
	translatorOnce.Do(func() {
		defaultTranslator = NewTranslator()
	})
	return defaultTranslator
}

// Translate returns the translated message for the given key and locale.
// Falls back to DefaultLocale if the locale or the key is not found.
func (t *Translator) Translate(key, locale string) string {
	if msg, ok := t.messages[locale][key]; ok {
		return msg
	}
	if msg, ok := t.messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// T translates key for the locale requested by c.
func T(c *gin.Context, key string) string {
	return GetTranslator().Translate(key, GetLocale(c))
}

// GetLocale extracts the locale from the gin context.
// Only the first language of Accept-Language is considered.
func GetLocale(c *gin.Context) string {
	acceptLang := c.GetHeader(AcceptLanguageHeader)
	if acceptLang == "" {
		return DefaultLocale
	}

	// e.g. "en-US,en;q=0.9,pt;q=0.8"
	first, _, _ := strings.Cut(acceptLang, ",")
	lang, _, _ := strings.Cut(first, ";")
	lang, _, _ = strings.Cut(strings.TrimSpace(lang), "-")
	lang = strings.ToLower(lang)
	if _, ok := defaultMessages[lang]; ok {
		return lang
	}
	return DefaultLocale
}

var defaultMessages = map[string]map[string]string{
	"en": {
		ErrKeyInvalidRequest:     "Invalid request",
		ErrKeyInternalError:      "An unexpected error occurred",
		ErrKeyNotFound:           "Not found",
		ErrKeyRateLimitExceeded:  "Too many requests, please try again later",
		ErrKeyServiceUnavailable: "Cache backend unavailable",
		ErrKeyUsernameRequired:   "Username is required",
		ErrKeyUsernameInvalid:    "Username may only contain letters, digits, underscores, dots and hyphens",
		ErrKeyProviderInvalid:    "Provider must be lastfm or listenbrainz",
		ErrKeyGenerationFailed:   "Error generating patchwork",
		ErrKeyInvalidCacheKey:    "Cache key must be a 64 character hex digest",
	},
	"pt": {
		ErrKeyInvalidRequest:     "Requisição inválida",
		ErrKeyInternalError:      "Ocorreu um erro inesperado",
		ErrKeyNotFound:           "Não encontrado",
		ErrKeyRateLimitExceeded:  "Muitas requisições, tente novamente mais tarde",
		ErrKeyServiceUnavailable: "Cache indisponível",
		ErrKeyUsernameRequired:   "O nome de usuário é obrigatório",
		ErrKeyUsernameInvalid:    "O nome de usuário só pode conter letras, dígitos, sublinhados, pontos e hífens",
		ErrKeyProviderInvalid:    "O provedor deve ser lastfm ou listenbrainz",
		ErrKeyGenerationFailed:   "Erro ao gerar o patchwork",
		ErrKeyInvalidCacheKey:    "A chave de cache deve ser um hash hexadecimal de 64 caracteres",
	},
	"nl": {
		ErrKeyInvalidRequest:     "Ongeldig verzoek",
		ErrKeyInternalError:      "Er is een onverwachte fout opgetreden",
		ErrKeyNotFound:           "Niet gevonden",
		ErrKeyRateLimitExceeded:  "Te veel verzoeken, probeer het later opnieuw",
		ErrKeyServiceUnavailable: "Cache niet beschikbaar",
		ErrKeyUsernameRequired:   "Gebruikersnaam is vereist",
		ErrKeyUsernameInvalid:    "Gebruikersnaam mag alleen letters, cijfers, underscores, punten en koppeltekens bevatten",
		ErrKeyProviderInvalid:    "Provider moet lastfm of listenbrainz zijn",
		ErrKeyGenerationFailed:   "Fout bij het genereren van de patchwork",
		ErrKeyInvalidCacheKey:    "Cachesleutel moet een hexadecimale hash van 64 tekens zijn",
	},
}
