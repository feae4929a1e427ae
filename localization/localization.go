// Package localization supplies the bundled, last-resort default strings and
// carries the caller's preferred languages through request contexts.
package localization

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
	"google.golang.org/grpc/metadata"
)

type contextKey string

func (c contextKey) String() string {
	return "telereso/localization/" + string(c)
}

const (
	ctxKeyLanguage = contextKey("languageKey")

	langKey             = "lang"
	acceptLanguageKey   = "Accept-Language"
	defaultTranslations = "localization"
)

// ToContext adds language to the current supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts language from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

func ToMap(m map[string]string, lang []string) map[string]string {
	m[langKey] = strings.Join(lang, ",")
	return m
}

func FromMap(m map[string]string) []string {
	lang, ok := m[langKey]
	if !ok || lang == "" {
		return nil
	}
	return strings.Split(lang, ",")
}

// LocalDefaults is the bundled source consulted when a string is missing remotely.
type LocalDefaults interface {
	LocalizedDefault(ctx context.Context, key string, localeHint string) string
}

// Manager serves bundled defaults from go-i18n message files.
type Manager interface {
	LocalDefaults
	Bundle() *i18n.Bundle
	Languages() []string
}

type managerImpl struct {
	bundle *i18n.Bundle
}

// NewManager loads messages.<lang>.toml from translationsFolder for each language.
func NewManager(translationsFolder string, languages ...string) (Manager, error) {
	if translationsFolder == "" {
		translationsFolder = defaultTranslations
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		file := filepath.Join(translationsFolder, fmt.Sprintf("messages.%s.toml", lang))
		if _, err := bundle.LoadMessageFile(file); err != nil {
			return nil, fmt.Errorf("could not load translations %q: %w", file, err)
		}
	}

	return &managerImpl{bundle: bundle}, nil
}

// Bundle Access the translation bundle instantiated in the resolver.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

func (s *managerImpl) Languages() []string {
	tags := s.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}

// LocalizedDefault looks key up for the hint, then the context languages, then English.
// It returns "" when no bundled message exists.
func (s *managerImpl) LocalizedDefault(ctx context.Context, key string, localeHint string) string {
	var languages []string
	if localeHint != "" {
		languages = append(languages, bcp47(localeHint))
	}
	languages = append(languages, FromContext(ctx)...)

	localizer := i18n.NewLocalizer(s.bundle, languages...)
	value, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			util.Log(ctx).WithError(err).WithField("key", key).Warn("could not localize bundled default")
		}
		return ""
	}
	return value
}

// bcp47 turns resolver locale tokens such as "pt_br" back into "pt-br".
func bcp47(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
}

// ParseAcceptLanguage returns the languages of an Accept-Language value in preference order.
func ParseAcceptLanguage(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}

	languages := make([]string, 0, len(tags))
	for _, tag := range tags {
		languages = append(languages, tag.String())
	}
	return languages
}

func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	var languages []string
	if lang := req.URL.Query().Get(langKey); lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, ExtractLanguageFromHTTPHeader(req.Header)...)
}

func ExtractLanguageFromHTTPHeader(header http.Header) []string {
	return ParseAcceptLanguage(header.Get(acceptLanguageKey))
}

func ExtractLanguageFromGrpcRequest(ctx context.Context) []string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	header := md.Get(strings.ToLower(acceptLanguageKey))
	if len(header) == 0 {
		return nil
	}
	return ParseAcceptLanguage(header[0])
}
