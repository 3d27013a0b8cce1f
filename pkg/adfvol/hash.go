package adfvol

import (
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// HashTableSize is the number of slots (ADF_HT_SIZE) in a root or userdir
// block's hashTable.
const HashTableSize = 72

// foldCase upper-cases name for hashing/comparison purposes. Non-INTL
// volumes use plain ASCII folding; INTL (and DIRCACHE, which implies
// INTL) volumes additionally fold Latin-1 code points 224..254 (except
// 247, the division sign) to 192..222, per spec.md §4.5.
//
// Amiga names are Latin-1 bytes, not UTF-8, so each byte is decoded
// through charmap.ISO8859_1 to the rune it actually represents before
// unicode.ToUpper folds it, then re-encoded back to its Latin-1 byte.
func foldCase(name []byte, intl bool) []byte {
	out := make([]byte, len(name))
	for i, c := range name {
		if !intl {
			out[i] = asciiUpper(c)
			continue
		}
		if c == 247 {
			out[i] = c
			continue
		}
		if c < 224 || c > 254 {
			out[i] = asciiUpper(c)
			continue
		}
		r := charmap.ISO8859_1.DecodeByte(c)
		upper := unicode.ToUpper(r)
		b, ok := charmap.ISO8859_1.EncodeRune(upper)
		if !ok {
			out[i] = c
			continue
		}
		out[i] = b
	}
	return out
}

func asciiUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// HashName computes the slot index in [0,71] a name belongs to:
// hash = len; for each folded byte c: hash = (hash*13 + c) & 0x7FF;
// then hash %= 72 (spec.md §4.5). Property: HashName(name) ==
// HashName(foldCase(name)) for any folding, since HashName folds
// internally.
func HashName(name []byte, intl bool) int {
	folded := foldCase(name, intl)
	hash := uint32(len(folded))
	for _, c := range folded {
		hash = (hash*13 + uint32(c)) & 0x7FF
	}
	return int(hash % HashTableSize)
}

// SameName reports whether a and b denote the same directory entry name
// under the volume's folding rules.
func SameName(a, b []byte, intl bool) bool {
	fa, fb := foldCase(a, intl), foldCase(b, intl)
	if len(fa) != len(fb) {
		return false
	}
	for i := range fa {
		if fa[i] != fb[i] {
			return false
		}
	}
	return true
}
