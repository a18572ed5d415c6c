package app

import (
	"net/url"
	"strings"
)

// dbTarget is what the process needs to know about DB_URL: where it points
// and whether it is a URL or a keyword/value DSN.
type dbTarget struct {
	url  *url.URL
	host string
	name string
}

func parseDBTarget(raw string) dbTarget {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		return dbTarget{
			url:  parsed,
			host: parsed.Hostname(),
			name: strings.TrimPrefix(parsed.Path, "/"),
		}
	}

	var target dbTarget
	for _, token := range strings.Fields(trimmed) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "host":
			target.host = value
		case "dbname":
			target.name = value
		}
	}
	return target
}

// normalizeDBURL tags URL-style connections with a fallback application
// name so sessions are attributable in pg_stat_activity. Keyword DSNs are
// passed through.
func normalizeDBURL(raw, applicationName string) string {
	applicationName = strings.TrimSpace(applicationName)
	target := parseDBTarget(raw)
	if applicationName == "" || target.url == nil {
		return raw
	}

	query := target.url.Query()
	if query.Get("application_name") != "" || query.Get("fallback_application_name") != "" {
		return raw
	}
	query.Set("fallback_application_name", applicationName)
	target.url.RawQuery = query.Encode()
	return target.url.String()
}
