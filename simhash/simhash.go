// Package simhash computes 64-bit SimHash fingerprints used to tell how far
// a scraped table drifted from the previous run.
package simhash

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"strconv"
	"strings"
)

// FromTokens computes a 64-bit SimHash over tokens, hashing each with
// FNV-64a and accumulating a signed bit vector.
func FromTokens(tokens []string) uint64 {
	if len(tokens) == 0 {
		return 0
	}

	var vector [64]int
	h := fnv.New64a()
	for _, tok := range tokens {
		h.Reset()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i, v := range vector {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Fingerprint computes the SimHash of text tokenized on whitespace.
func Fingerprint(text string) uint64 {
	return FromTokens(strings.Fields(text))
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether a and b are within threshold bits of each other.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Hex formats fp as 16 lowercase hex digits.
func Hex(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}

// ParseHex is the inverse of Hex.
func ParseHex(s string) (uint64, error) {
	return strconv.ParseUint(s, 16, 64)
}
