// Package ids builds the prefixed, time-ordered record ids used across the
// document store ("evt-…", "ghl-…", "book_…").
// This is part of the platform layer and contains no business logic.
package ids

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomSource returns a value in [0, n). Tests inject fixed sources.
type RandomSource interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// Random is the process-wide RandomSource.
var Random RandomSource = globalRand{}

// Suffix returns n random base36 characters.
func Suffix(rnd RandomSource, n int) string {
	if rnd == nil {
		rnd = Random
	}
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[rnd.Intn(len(alphabet))])
	}
	return b.String()
}

// Synthetic builds "<prefix>-<epoch ms>-<6 base36 chars>".
func Synthetic(prefix string, now time.Time, rnd RandomSource) string {
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + Suffix(rnd, 6)
}
