// SPDX-License-Identifier: GPL-3.0-only

package osint

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// SupportedTypes are the lookup kinds the provider understands.
var SupportedTypes = []string{"email", "username", "domain", "phone", "ip"}

var (
	ErrUnsupportedType = errors.New("unsupported search type")
	ErrInvalidQuery    = errors.New("invalid search query")
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	domainPattern   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{1,61}[a-zA-Z0-9]\.[a-zA-Z]{2,}$`)
	ipv4Pattern     = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
	nonDigits       = regexp.MustCompile(`\D`)
)

var inputSanitizer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// SanitizeInput neutralizes characters that could escape into rendered
// output downstream.
func SanitizeInput(input string) string {
	return inputSanitizer.Replace(input)
}

// ValidateQuery normalizes and validates a lookup query for its type,
// returning the query in the form to send to the provider.
func ValidateQuery(searchType, query string) (string, error) {
	if query == "" || searchType == "" {
		return "", fmt.Errorf("%w: type and query are required", ErrInvalidQuery)
	}

	sanitized := SanitizeInput(strings.TrimSpace(query))

	switch strings.ToLower(searchType) {
	case "email":
		if !emailPattern.MatchString(sanitized) {
			return "", fmt.Errorf("%w: malformed email", ErrInvalidQuery)
		}
		return sanitized, nil
	case "domain":
		if !domainPattern.MatchString(sanitized) {
			return "", fmt.Errorf("%w: malformed domain", ErrInvalidQuery)
		}
		return sanitized, nil
	case "ip":
		if !ipv4Pattern.MatchString(sanitized) {
			return "", fmt.Errorf("%w: malformed IPv4 address", ErrInvalidQuery)
		}
		return sanitized, nil
	case "phone":
		digits := nonDigits.ReplaceAllString(sanitized, "")
		if len(digits) < 7 {
			return "", fmt.Errorf("%w: phone number too short", ErrInvalidQuery)
		}
		return digits, nil
	case "username":
		if !usernamePattern.MatchString(sanitized) {
			return "", fmt.Errorf("%w: malformed username", ErrInvalidQuery)
		}
		return sanitized, nil
	default:
		return "", fmt.Errorf("%w: %q, supported types are: %s",
			ErrUnsupportedType, searchType, strings.Join(SupportedTypes, ", "))
	}
}
