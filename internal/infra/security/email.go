package security

import (
	"regexp"
	"strings"
)

const (
	maxEmailLength       = 254
	maxLocalPartLength   = 64
	maxDomainLabelLength = 63
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)+$`)

// IsEmailValid reports whether the address is a usable mailbox: syntactically
// well formed and within the length limits mail servers enforce.
func IsEmailValid(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}

	local, domain := email[:at], email[at+1:]
	if len(local) > maxLocalPartLength {
		return false
	}

	for _, label := range strings.Split(domain, ".") {
		if len(label) == 0 || len(label) > maxDomainLabelLength {
			return false
		}
	}

	return emailPattern.MatchString(email)
}

// StripDomain removes the domain part of an address, leaving the local part.
// Non-address usernames pass through unchanged.
func StripDomain(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
