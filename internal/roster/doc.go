// Package roster derives filtered and sorted views over student records,
// classifies body-weight status and summarises roster statistics.
//
// Everything in this package is pure: inputs are never mutated and every
// result is a fresh value.
package roster
