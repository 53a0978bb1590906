package table

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// Digest hashes the live contents of a table with BLAKE3: for each record in
// scan order, its id as 4 little-endian bytes followed by the record bytes.
// Two tables with the same records under the same ids have equal digests.
func Digest(m *Manager, root uint32) ([32]byte, error) {
	var sum [32]byte
	h := blake3.New()
	var idBuf [4]byte
	err := m.Scan(root, func(id RecordID, rec []byte) error {
		binary.LittleEndian.PutUint32(idBuf[:], uint32(id))
		h.Write(idBuf[:])
		h.Write(rec)
		return nil
	})
	if err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
