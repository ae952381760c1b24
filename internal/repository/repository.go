// Package repository holds what the single-document storage backends share.
package repository

import "errors"

// ErrNotFound is returned by Load when no document has been stored yet.
var ErrNotFound = errors.New("ledger document not found")
