// Package mailaddr canonicalizes and validates email addresses.
//
// Every component that accepts an address passes it through this package
// first, so address hygiene is decided in exactly one place:
//
//	addr, ok := mailaddr.Normalize("  Jane.Doe@Example.COM ")
//	// addr == "jane.doe@example.com", ok == true
//
//	valid, invalid := mailaddr.Partition([]string{"a@x.com", "nope", "A@X.com"})
//	// valid == ["a@x.com"], invalid == ["nope"]
//
// Mask hides the local part of an address before it is stored in places
// visible to non-admin surfaces:
//
//	mailaddr.Mask("jane@example.com") // "j***@example.com"
//
// All functions are pure and safe for concurrent use.
package mailaddr
