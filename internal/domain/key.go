package domain

import "fmt"

// compositeKey mirrors the legacy dedup key shape: sender, amount and
// millisecond timestamp. Two equal-amount deposits from one sender in
// the same millisecond collide, which is why DedupKey prefers the hash.
func compositeKey(sender, amount string, timeMs int64) string {
	return fmt.Sprintf("%s_%s_%d", sender, amount, timeMs)
}
