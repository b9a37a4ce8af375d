// redact маскирует чувствительные значения перед записью в лог.
package redact

import "strings"

// Email оставляет первые два символа локальной части и домен.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := []rune(parts[0]), parts[1]
	if len(local) > 2 {
		return string(local[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// Token показывает только хвост токена, достаточный для сопоставления записей.
func Token(tok string) string {
	const tail = 4

	if len(tok) < 4*tail {
		return "[REDACTED_TOKEN]"
	}

	return "***" + tok[len(tok)-tail:]
}

// Authorization маскирует значение заголовка Authorization.
func Authorization(h string) string {
	const prefix = "Bearer "

	if h == "" {
		return ""
	}
	if strings.HasPrefix(h, prefix) {
		return prefix + Token(strings.TrimSpace(h[len(prefix):]))
	}

	return "[REDACTED]"
}

func Password() string { return "[REDACTED_PASSWORD]" }
