package mailaddr

import "strings"

// Mask keeps the first character of the local part and the full domain,
// replacing the rest of the local part with a fixed "***" marker so the
// original length is not revealed either. Values without a usable "@" are
// masked entirely.
func Mask(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]
	return string([]rune(local)[0]) + "***@" + domain
}
