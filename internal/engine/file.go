package engine

import (
	"encoding/binary"

	"github.com/ordkv/ordkv/internal/mmap"
)

// Data file layout (little endian): a fixed header followed by
// length-prefixed records.
//
//	offset  0  magic    uint64
//	offset  8  version  uint32
//	offset 12  pageSize uint32
//	offset 16  txnID    uint64
//	offset 24  count    uint64
//	offset 32  dataLen  uint64 (payload bytes after the header)
//	offset 40  reserved, zeroed up to headerSize
//
// Records: repeated { klen uint32, vlen uint32, key, val }.
const (
	dataMagic    uint64 = 0x4F52444B5644 // "ORDKVD"
	dataVersion  uint32 = 1
	headerSize          = 64
	initialTxnID uint64 = 1
)

func payloadLen(records map[string][]byte) int {
	n := 0
	for k, v := range records {
		n += 8 + len(k) + len(v)
	}
	return n
}

// writeFile serializes a snapshot into the mapped region. Fails with MapFull
// when the payload does not fit the mapping.
func writeFile(m *mmap.Map, snap *snapshot) Status {
	data := m.Data()
	need := headerSize + payloadLen(snap.records)
	if need > len(data) {
		return MapFull
	}

	binary.LittleEndian.PutUint64(data[0:8], dataMagic)
	binary.LittleEndian.PutUint32(data[8:12], dataVersion)
	binary.LittleEndian.PutUint32(data[12:16], uint32(sysPageSize))
	binary.LittleEndian.PutUint64(data[16:24], snap.txnID)
	binary.LittleEndian.PutUint64(data[24:32], uint64(len(snap.records)))
	binary.LittleEndian.PutUint64(data[32:40], uint64(need-headerSize))
	for i := 40; i < headerSize; i++ {
		data[i] = 0
	}

	off := headerSize
	for k, v := range snap.records {
		binary.LittleEndian.PutUint32(data[off:], uint32(len(k)))
		binary.LittleEndian.PutUint32(data[off+4:], uint32(len(v)))
		off += 8
		off += copy(data[off:], k)
		off += copy(data[off:], v)
	}
	return OK
}

// readFile validates the header and loads the record table.
func readFile(data []byte) (*snapshot, Status) {
	if len(data) < headerSize {
		return nil, Invalid
	}
	if binary.LittleEndian.Uint64(data[0:8]) != dataMagic {
		return nil, Invalid
	}
	if binary.LittleEndian.Uint32(data[8:12]) != dataVersion {
		return nil, VersionMismatch
	}
	txnID := binary.LittleEndian.Uint64(data[16:24])
	count := binary.LittleEndian.Uint64(data[24:32])
	dataLen := binary.LittleEndian.Uint64(data[32:40])
	if dataLen > uint64(len(data)-headerSize) {
		return nil, Corrupted
	}

	payload := data[headerSize : headerSize+int(dataLen)]
	records := make(map[string][]byte, count)
	off := 0
	for i := uint64(0); i < count; i++ {
		if off+8 > len(payload) {
			return nil, Corrupted
		}
		klen := int(binary.LittleEndian.Uint32(payload[off:]))
		vlen := int(binary.LittleEndian.Uint32(payload[off+4:]))
		off += 8
		if klen < 0 || vlen < 0 || off+klen+vlen > len(payload) {
			return nil, Corrupted
		}
		key := string(payload[off : off+klen])
		off += klen
		val := make([]byte, vlen)
		copy(val, payload[off:off+vlen])
		off += vlen
		records[key] = val
	}
	if uint64(off) != dataLen {
		return nil, Corrupted
	}
	return &snapshot{txnID: txnID, records: records}, OK
}
