package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// recordKind is the one-byte type discriminator prefixed to every persisted
// record. Decoding against the wrong kind is a corruption error, never a
// silent reinterpretation.
type recordKind byte

const (
	kindAccount   recordKind = 0x01
	kindUsername  recordKind = 0x02
	kindCreator   recordKind = 0x03
	kindReceipt   recordKind = 0x04
	kindSponsored recordKind = 0x05
	kindVault     recordKind = 0x06
)

func encodeRecord(kind recordKind, v interface{}) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, fmt.Errorf("state: encode record kind %#x: %w", byte(kind), err)
	}
	buf := make([]byte, 1+len(payload))
	buf[0] = byte(kind)
	copy(buf[1:], payload)
	return buf, nil
}

func decodeRecord(kind recordKind, data []byte, out interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("state: empty record for kind %#x", byte(kind))
	}
	if data[0] != byte(kind) {
		return fmt.Errorf("state: record kind mismatch: want %#x got %#x", byte(kind), data[0])
	}
	if err := rlp.DecodeBytes(data[1:], out); err != nil {
		return fmt.Errorf("state: decode record kind %#x: %w", byte(kind), err)
	}
	return nil
}
