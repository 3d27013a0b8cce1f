package adfblk

import "errors"

// ErrWrongSize is returned when a decode function is handed a buffer whose
// length doesn't match the block type's fixed on-disk size.
var ErrWrongSize = errors.New("adfblk: block buffer has the wrong size")

// HashTableSize is the number of hash-table slots in a root or userdir block.
const HashTableSize = 72
