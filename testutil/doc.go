// Package testutil provides deterministic randomness and reference-model
// helpers for bitgo's property tests.
package testutil
