package adfvol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashNameIsWithinTable(t *testing.T) {
	for _, name := range []string{"S", "c", "startup-sequence", "Work", "T"} {
		h := HashName([]byte(name), false)
		require.GreaterOrEqual(t, h, 0)
		require.Less(t, h, HashTableSize)
	}
}

func TestHashNameStableAcrossCalls(t *testing.T) {
	a := HashName([]byte("Workbench"), false)
	b := HashName([]byte("Workbench"), false)
	require.Equal(t, a, b)
}

func TestSameNameCaseFoldASCII(t *testing.T) {
	require.True(t, SameName([]byte("Work"), []byte("work"), false))
	require.True(t, SameName([]byte("WORK"), []byte("work"), false))
	require.False(t, SameName([]byte("Work"), []byte("Worked"), false))
}

func TestSameNameINTLFoldsLatin1(t *testing.T) {
	// 0xE9 is 'é' in Latin-1; its INTL upper fold is 0xC9 ('É').
	require.True(t, SameName([]byte{0xE9}, []byte{0xC9}, true))
	require.False(t, SameName([]byte{0xE9}, []byte{0xC9}, false))
}
