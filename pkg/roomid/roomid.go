// Package roomid mints time-ordered room identifiers.
package roomid

import "github.com/google/uuid"

// New returns a UUIDv7: a 48-bit millisecond timestamp prefix plus random
// bits, formatted as the canonical 36-character hyphenated string. Ids
// minted later sort lexically after ids minted in an earlier millisecond,
// which keeps room listings roughly chronological for free. Falls back to
// a v4 id if the random source fails.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
