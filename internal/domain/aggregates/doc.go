// Package aggregates defines domain-facing aggregate contracts.
//
// Contracts here avoid persistence and transport details. Each one names a
// write boundary whose invariants must hold atomically.
package aggregates
