package core

import (
	"fmt"
	"math/rand/v2"
)

// cursorPalette is the fixed set of colors assigned round-robin-free
// (uniformly at random) to new sessions.
var cursorPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
}

// newDisplayName returns an anonymous handle like "Anonymous #123".
// Names are not guaranteed unique.
func newDisplayName() string {
	return fmt.Sprintf("Anonymous #%d", rand.IntN(900)+100)
}

func newColor() string {
	return cursorPalette[rand.IntN(len(cursorPalette))]
}
