package state

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Every record slot is a keccak of a domain tag plus the key material, so a
// record's address is a pure function of what it identifies.
var (
	usernamePrefix  = []byte("username:")
	creatorPrefix   = []byte("creator:")
	accessPrefix    = []byte("access:")
	sponsoredPrefix = []byte("sponsored:")
	accountPrefix   = []byte("account:")
	vaultStateTag   = []byte("vault-state")
)

func derive(prefix []byte, material ...[]byte) []byte {
	size := len(prefix)
	for _, m := range material {
		size += len(m)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, m := range material {
		buf = append(buf, m...)
	}
	return ethcrypto.Keccak256(buf)
}

// UsernameKey derives the slot for a username record.
func UsernameKey(username string) []byte {
	return derive(usernamePrefix, []byte(username))
}

// CreatorKey derives the slot for a creator account.
func CreatorKey(creator [20]byte) []byte {
	return derive(creatorPrefix, creator[:])
}

// AccessKey derives the slot for a paid-access receipt. The content id is
// folded in as fixed-width little-endian bytes.
func AccessKey(buyer [20]byte, contentID uint64) []byte {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], contentID)
	return derive(accessPrefix, buyer[:], id[:])
}

// SponsoredKey derives the slot for a sponsored-user record.
func SponsoredKey(user [20]byte) []byte {
	return derive(sponsoredPrefix, user[:])
}

// AccountKey derives the slot for a balance account.
func AccountKey(addr [20]byte) []byte {
	return derive(accountPrefix, addr[:])
}

// VaultStateKey derives the fixed slot for the treasury singleton.
func VaultStateKey() []byte {
	return ethcrypto.Keccak256(vaultStateTag)
}
