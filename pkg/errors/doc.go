// Package errors is deliberately small: one BaseError every concrete error
// embeds, and one constructor per taxonomy entry. It does not attempt a
// generic "wrap anything" error framework — every error state-engine can
// return has a name, and every name here participates in errors.Is/
// errors.As like any standard-library error.
package errors
