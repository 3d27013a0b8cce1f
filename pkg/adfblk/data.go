package adfblk

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/adflib/pkg/adfchk"
)

// TypeDataOFS is the primaryType of an OFS data block.
const TypeDataOFS = 8

// DataOFSPayloadSize is the number of payload bytes an OFS data block
// carries alongside its 24-byte header.
const DataOFSPayloadSize = adfchk.BlockSize - 24

// DataOFS is an OFS data block: a 24-byte header (type, owning file
// header sector, 1-based sequence number, live byte count, next block
// pointer, checksum) followed by payload bytes (spec.md §4.6).
type DataOFS struct {
	Type      uint32
	HeaderKey uint32
	SeqNum    uint32
	DataSize  uint32
	NextData  uint32
	Checksum  uint32
	Payload   [DataOFSPayloadSize]byte
}

// Encode serializes the data block and writes its checksum.
func (d *DataOFS) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, d)
	out := buf.Bytes()
	adfchk.WriteChecksum(out, adfchk.ChecksumOffsetStandard)
	return out
}

// DecodeDataOFS parses and checksum-verifies an OFS data block.
func DecodeDataOFS(raw []byte) (*DataOFS, bool, error) {
	if len(raw) != adfchk.BlockSize {
		return nil, false, ErrWrongSize
	}
	d := new(DataOFS)
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, d); err != nil {
		return nil, false, err
	}
	return d, adfchk.VerifyChecksum(raw, adfchk.ChecksumOffsetStandard), nil
}

// DataFFSPayloadSize is the full-block payload size FFS data blocks use;
// they carry no header or checksum at all (spec.md §4.6).
const DataFFSPayloadSize = adfchk.BlockSize
