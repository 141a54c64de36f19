package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"SmartFeeds/internal/domain"
)

const defaultInterests = "No specific interests provided."

// LoadSources reads the TOML sources file. Any malformed entry fails the
// whole load with a *domain.ConfigError.
func LoadSources(path string) ([]domain.Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigError{Field: "sources", Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return ParseSources(raw)
}

// ParseSources decodes the `websites` and `rss` arrays. Each element is a
// bare URL string or a table with at least `url`. Disabled entries are dropped.
func ParseSources(raw []byte) ([]domain.Source, error) {
	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, &domain.ConfigError{Field: "sources", Err: fmt.Errorf("parse toml: %w", err)}
	}

	var sources []domain.Source

	websites, err := entries(doc, "websites")
	if err != nil {
		return nil, err
	}
	for i, entry := range websites {
		site, enabled, err := websiteFrom(entry)
		if err != nil {
			return nil, &domain.ConfigError{Field: fmt.Sprintf("websites[%d]", i), Err: err}
		}
		if enabled {
			sources = append(sources, site)
		}
	}

	feeds, err := entries(doc, "rss")
	if err != nil {
		return nil, err
	}
	for i, entry := range feeds {
		feed, enabled, err := feedFrom(entry)
		if err != nil {
			return nil, &domain.ConfigError{Field: fmt.Sprintf("rss[%d]", i), Err: err}
		}
		if enabled {
			sources = append(sources, feed)
		}
	}

	return sources, nil
}

// LoadInterests reads the free-form interest profile. A missing file yields
// a neutral profile; any other read failure is a *domain.ConfigError.
func LoadInterests(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultInterests, nil
	}
	if err != nil {
		return "", &domain.ConfigError{Field: "interests", Err: fmt.Errorf("read %s: %w", path, err)}
	}
	profile := strings.TrimSpace(string(raw))
	if profile == "" {
		return defaultInterests, nil
	}
	return profile, nil
}

func entries(doc map[string]any, key string) ([]any, error) {
	value, ok := doc[key]
	if !ok {
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, &domain.ConfigError{Field: key, Err: fmt.Errorf("expected array, got %T", value)}
	}
	return list, nil
}

func websiteFrom(entry any) (domain.Website, bool, error) {
	switch v := entry.(type) {
	case string:
		u, err := validURL(v)
		if err != nil {
			return domain.Website{}, false, err
		}
		return domain.Website{URL: u, Mode: domain.ModeBrowser}, true, nil
	case map[string]any:
		t := newTable(v)
		u, err := validURL(t.str("url"))
		if err != nil {
			return domain.Website{}, false, err
		}
		mode := strings.ToLower(t.str("mode"))
		switch mode {
		case "":
			mode = domain.ModeBrowser
		case domain.ModeBrowser, domain.ModeHTTP:
		default:
			return domain.Website{}, false, fmt.Errorf("unknown mode %q", mode)
		}
		site := domain.Website{
			Name:        t.str("name"),
			URL:         u,
			Instruction: t.str("instruction"),
			Selector:    t.str("selector"),
			Mode:        mode,
		}
		enabled, err := t.boolean("enabled", true)
		if err != nil {
			return domain.Website{}, false, err
		}
		if err := t.err(); err != nil {
			return domain.Website{}, false, err
		}
		return site, enabled, nil
	default:
		return domain.Website{}, false, fmt.Errorf("expected string or table, got %T", entry)
	}
}

func feedFrom(entry any) (domain.Feed, bool, error) {
	switch v := entry.(type) {
	case string:
		u, err := validURL(v)
		if err != nil {
			return domain.Feed{}, false, err
		}
		return domain.Feed{URL: u}, true, nil
	case map[string]any:
		t := newTable(v)
		u, err := validURL(t.str("url"))
		if err != nil {
			return domain.Feed{}, false, err
		}
		limit, err := t.integer("limit")
		if err != nil {
			return domain.Feed{}, false, err
		}
		if limit < 0 {
			return domain.Feed{}, false, fmt.Errorf("limit must not be negative")
		}
		feed := domain.Feed{
			Name:        t.str("name"),
			URL:         u,
			Instruction: t.str("instruction"),
			Limit:       int(limit),
		}
		enabled, err := t.boolean("enabled", true)
		if err != nil {
			return domain.Feed{}, false, err
		}
		if err := t.err(); err != nil {
			return domain.Feed{}, false, err
		}
		return feed, enabled, nil
	default:
		return domain.Feed{}, false, fmt.Errorf("expected string or table, got %T", entry)
	}
}

func validURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("missing url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: want absolute http(s) url", raw)
	}
	return raw, nil
}

// table is a typed view over a decoded TOML table; the first string type
// mismatch is kept and reported by err.
type table struct {
	m   map[string]any
	bad error
}

func newTable(m map[string]any) *table {
	return &table{m: m}
}

func (t *table) str(key string) string {
	v, ok := t.m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		if t.bad == nil {
			t.bad = fmt.Errorf("%s: expected string, got %T", key, v)
		}
		return ""
	}
	return strings.TrimSpace(s)
}

func (t *table) boolean(key string, fallback bool) (bool, error) {
	v, ok := t.m[key]
	if !ok {
		return fallback, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected bool, got %T", key, v)
	}
	return b, nil
}

func (t *table) integer(key string) (int64, error) {
	v, ok := t.m[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%s: expected integer, got %T", key, v)
	}
	return n, nil
}

func (t *table) err() error {
	return t.bad
}
