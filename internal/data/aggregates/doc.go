// Package aggregates implements the domain aggregate contracts on top of the
// table repos in internal/data/repos. Write operations own their transaction.
package aggregates
