// Package testutil provides shared fixtures for ledger tests: key
// generation, a manually advanced clock for exercising cooldown
// windows, and a pre-wired protocol + local oracle pair.
package testutil
