package rtdb

import (
	"math/rand"
	"sync"
	"time"
)

// pushAlphabet is the URL-safe, lexicographically ordered alphabet used
// for generated child keys. Keys sort chronologically as strings.
const pushAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var pushMu sync.Mutex
var lastPushTime int64
var lastRandChars [12]int

// newPushID generates a 20-character chronological key: 8 characters of
// timestamp followed by 12 characters of randomness. Keys generated in
// the same millisecond increment the random tail so ordering still holds.
func newPushID(now time.Time) string {
	pushMu.Lock()
	defer pushMu.Unlock()

	ms := now.UnixMilli()
	duplicate := ms == lastPushTime
	lastPushTime = ms

	var id [20]byte
	for i := 7; i >= 0; i-- {
		id[i] = pushAlphabet[ms%64]
		ms /= 64
	}

	if duplicate {
		// Increment the previous random tail.
		for i := 11; i >= 0; i-- {
			if lastRandChars[i] != 63 {
				lastRandChars[i]++
				break
			}
			lastRandChars[i] = 0
		}
	} else {
		for i := 0; i < 12; i++ {
			lastRandChars[i] = rand.Intn(64)
		}
	}

	for i := 0; i < 12; i++ {
		id[8+i] = pushAlphabet[lastRandChars[i]]
	}

	return string(id[:])
}
