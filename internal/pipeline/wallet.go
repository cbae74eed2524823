package pipeline

import "strings"

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// looksStandardWallet reports whether addr has the shape of a standard
// base58 wallet address. Program-derived and malformed addresses are
// filtered out of snapshots when wallet validation is enabled.
func looksStandardWallet(addr string) bool {
	if len(addr) < 32 || len(addr) > 44 {
		return false
	}
	for _, r := range addr {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}
