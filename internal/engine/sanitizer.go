// FILENAME: internal/engine/sanitizer.go
package engine

import "strings"

var sensitiveHeaders = []string{"Authorization", "Cookie", "Set-Cookie", "X-Auth-Token", "Proxy-Authorization"}

// SanitizeHeadersForLog returns a copy of h with sensitive values redacted.
func SanitizeHeadersForLog(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
		for _, key := range sensitiveHeaders {
			// Case insensitive check
			if strings.EqualFold(key, k) {
				out[k] = "[REDACTED]"
				break
			}
		}
	}
	return out
}
