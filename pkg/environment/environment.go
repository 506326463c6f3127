// Package environment names the runtime environments the notifier knows about.
package environment

import "strings"

// Environment represents application environment.
type Environment string

const (
	// Development for local work. Text logs, debug level.
	Development Environment = "development"
	// Staging mirrors production settings.
	Staging Environment = "staging"
	// Production for live traffic.
	Production Environment = "production"
	// Test disables outbound network I/O by default.
	Test Environment = "test"
)

// Parse maps a raw APP_ENV value, including the short aliases
// "dev", "stage", "prod" and "testing", to an Environment.
// Unknown or empty values resolve to Development.
func Parse(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "test", "testing":
		return Test
	default:
		return Development
	}
}

// IsProduction reports whether e is Production.
func (e Environment) IsProduction() bool { return e == Production }

// IsTest reports whether e is Test.
func (e Environment) IsTest() bool { return e == Test }

// String implements fmt.Stringer.
func (e Environment) String() string { return string(e) }
