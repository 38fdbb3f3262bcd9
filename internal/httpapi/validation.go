package httpapi

import "strings"

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func validEmail(s string) bool {
	if len(s) < 3 || len(s) > 254 {
		return false
	}
	at := strings.IndexByte(s, '@')
	if at < 1 || at == len(s)-1 {
		return false
	}
	return !strings.ContainsAny(s, " \t")
}

func validName(s string) bool {
	return len(s) >= 1 && len(s) <= 100
}

const minPasswordLen = 8
