package mailaddr

import (
	"regexp"
	"strings"
)

const maxLabelLength = 63

var (
	localPartRegex = regexp.MustCompile("^[a-z0-9!#$%&'*+/=?^_`{|}~-]+(\\.[a-z0-9!#$%&'*+/=?^_`{|}~-]+)*$")
	labelRegex     = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
)

// Normalize trims and lowercases raw.
// It reports false when nothing is left after trimming.
func Normalize(raw string) (string, bool) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	if addr == "" {
		return "", false
	}
	return addr, true
}

// IsValid normalizes raw and checks it against the address grammar:
// a dot-atom local part, an "@" and at least two dot-separated domain
// labels of 1-63 characters that neither start nor end with a hyphen.
func IsValid(raw string) bool {
	addr, ok := Normalize(raw)
	if !ok {
		return false
	}
	return validNormalized(addr)
}

func validNormalized(addr string) bool {
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 {
		return false
	}

	local, domain := addr[:at], addr[at+1:]
	if !localPartRegex.MatchString(local) {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > maxLabelLength {
			return false
		}
		if !labelRegex.MatchString(label) {
			return false
		}
	}
	return true
}

// Canonical returns the normalized form of raw when it is a valid address.
func Canonical(raw string) (string, bool) {
	addr, ok := Normalize(raw)
	if !ok || !validNormalized(addr) {
		return "", false
	}
	return addr, true
}

// Partition splits raws into normalized, deduplicated valid addresses and
// trimmed echoes of the values that could not be used. Empty strings are
// dropped silently; whitespace-only values are reported as invalid.
// Input order is preserved in both results.
func Partition(raws []string) (valid, invalid []string) {
	seenValid := make(map[string]struct{}, len(raws))
	seenInvalid := make(map[string]struct{})

	for _, raw := range raws {
		if addr, ok := Canonical(raw); ok {
			if _, dup := seenValid[addr]; dup {
				continue
			}
			seenValid[addr] = struct{}{}
			valid = append(valid, addr)
			continue
		}
		if raw == "" {
			continue
		}
		echo := strings.TrimSpace(raw)
		if _, dup := seenInvalid[echo]; dup {
			continue
		}
		seenInvalid[echo] = struct{}{}
		invalid = append(invalid, echo)
	}
	return valid, invalid
}
