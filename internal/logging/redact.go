package logging

import "regexp"

const placeholder = "[REDACTED]"

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-\._~+/]+=*)`)
	keyValuePattern    = regexp.MustCompile(
		`(?i)((?:"|')?(?:api[_-]?key|x-api-key|token|secret|password)(?:"|')?\s*(?:=|:)\s*)(?:"|')?([^"'\s,;]+)((?:"|')?)`,
	)
)

// Sanitize strips bearer tokens and api-key material from a log line so
// credentials never reach log output.
func Sanitize(line string) string {
	sanitized := bearerTokenPattern.ReplaceAllString(line, "${1}"+placeholder)
	sanitized = keyValuePattern.ReplaceAllStringFunc(sanitized, func(match string) string {
		parts := keyValuePattern.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		return parts[1] + placeholder + parts[3]
	})
	return sanitized
}
