package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Supported languages, fallback first.
var Supported = []language.Tag{language.English, language.Hindi}

// Bundle holds every catalog and picks one per request.
type Bundle struct {
	catalogs map[string]map[string]string
	matcher  language.Matcher
	fallback string
}

// Localizer resolves keys for one language, falling back to English and
// then to the key itself.
type Localizer struct {
	lang     string
	messages map[string]string
	fallback map[string]string
}

// Load parses the embedded catalogs.
func Load() (*Bundle, error) {
	b := &Bundle{
		catalogs: make(map[string]map[string]string),
		matcher:  language.NewMatcher(Supported),
		fallback: language.English.String(),
	}
	for _, tag := range Supported {
		name := tag.String()
		data, err := localeFS.ReadFile(path.Join("locales", name+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("read %s catalog: %w", name, err)
		}
		msgs := make(map[string]string)
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("parse %s catalog: %w", name, err)
		}
		b.catalogs[name] = msgs
	}
	return b, nil
}

// MustLoad panics if the embedded catalogs are broken.
func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// Match chooses a supported language from explicit preferences (query,
// cookie, profile) and an Accept-Language header. The first non-empty
// explicit preference that is supported wins.
func (b *Bundle) Match(acceptLanguage string, preferred ...string) string {
	for _, p := range preferred {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tag, err := language.Parse(p)
		if err != nil {
			continue
		}
		if _, _, conf := b.matcher.Match(tag); conf >= language.High {
			return b.base(tag)
		}
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback
	}
	return Supported[idx].String()
}

func (b *Bundle) base(tag language.Tag) string {
	_, idx, _ := b.matcher.Match(tag)
	return Supported[idx].String()
}

// Localizer returns a localizer for lang; unknown languages get English.
func (b *Bundle) Localizer(lang string) *Localizer {
	msgs, ok := b.catalogs[lang]
	if !ok {
		lang = b.fallback
		msgs = b.catalogs[lang]
	}
	return &Localizer{lang: lang, messages: msgs, fallback: b.catalogs[b.fallback]}
}

// Languages lists the codes of every loaded catalog in fallback order.
func (b *Bundle) Languages() []string {
	out := make([]string, len(Supported))
	for i, t := range Supported {
		out[i] = t.String()
	}
	return out
}

// Lang is the resolved language code.
func (l *Localizer) Lang() string { return l.lang }

// T resolves a key.
func (l *Localizer) T(key string) string {
	if v, ok := l.messages[key]; ok {
		return v
	}
	if v, ok := l.fallback[key]; ok {
		return v
	}
	return key
}

// Tf resolves a key and replaces {name} placeholders.
func (l *Localizer) Tf(key string, args map[string]string) string {
	s := l.T(key)
	for k, v := range args {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
