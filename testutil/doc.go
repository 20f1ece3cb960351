// Package testutil provides shared test helpers: a seeded thread-safe
// random number generator and a brute-force reference index used to
// cross-check query results.
package testutil
