// Package models defines the domain records the client core works with.
//
// All records mirror server-owned state: the client reads them over the
// REST API and never mutates them locally. Money amounts are
// shopspring/decimal values; a member's Balance amounts within one group
// always sum to zero (the server maintains that invariant, the client
// only consumes it).
//
// Pointer fields on UserProfile (ProfileFirstName, IsRegisteredInGroup,
// RulesAccepted) are tri-state: the server may omit them, and the
// bootstrap logic distinguishes "unknown" from "false".
package models
