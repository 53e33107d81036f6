// Package types holds the shared domain types of the policy navigator:
// the structured error taxonomy, the government-API result payloads, and
// context helpers used by the HTTP middleware.
//
// The package is imported by every layer and therefore depends on nothing
// inside the module.
package types
