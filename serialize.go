package hmsearch

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/kampersanda/hmsearch/hmerrors"
	"github.com/kampersanda/hmsearch/internal/bitpack"
	"github.com/kampersanda/hmsearch/internal/odv"
	"github.com/kampersanda/hmsearch/internal/verify"
)

// Serialized layout (§6, §10.3), all integers little-endian:
//
//	[header: 40B][bucket_begs: (B+1)*4B]
//	[table 0: bucketLen, delMarker, width, numSlots, numSigs, numIDs,
//	          slots[numSlots]*12B, signatures (bit-packed), ids[numIDs]*4B]
//	... one per bucket ...
//	[verify store: levels-or-width header field reused, plane/key vector]
//	[footer: 16B, xxhash.Sum64 checksum over everything preceding it]
const (
	magic      = uint32(0x52534d48) // bytes "HMSR" when written little-endian
	formatVer  = uint16(1)
	headerSize = 40
	footerSize = 16
)

type header struct {
	Length        uint32
	Alphabet      uint32
	Buckets       uint32
	LevelsOrWidth uint32
	NumKeys       uint64
	Mode          uint8
}

func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], formatVer)
	buf[6] = h.Mode
	buf[7] = 0
	binary.LittleEndian.PutUint32(buf[8:12], h.Length)
	binary.LittleEndian.PutUint32(buf[12:16], h.Alphabet)
	binary.LittleEndian.PutUint32(buf[16:20], h.Buckets)
	binary.LittleEndian.PutUint32(buf[20:24], h.LevelsOrWidth)
	binary.LittleEndian.PutUint64(buf[24:32], h.NumKeys)
	// buf[32:40] reserved, left zero.
}

func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, hmerrors.ErrTruncatedData
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return nil, hmerrors.ErrInvalidMagic
	}
	if binary.LittleEndian.Uint16(buf[4:6]) != formatVer {
		return nil, hmerrors.ErrInvalidVersion
	}
	h := &header{
		Mode:          buf[6],
		Length:        binary.LittleEndian.Uint32(buf[8:12]),
		Alphabet:      binary.LittleEndian.Uint32(buf[12:16]),
		Buckets:       binary.LittleEndian.Uint32(buf[16:20]),
		LevelsOrWidth: binary.LittleEndian.Uint32(buf[20:24]),
		NumKeys:       binary.LittleEndian.Uint64(buf[24:32]),
	}
	return h, nil
}

// SerializedSize returns the exact number of bytes WriteTo would produce for
// idx, without constructing the serialized form. SaveFile uses this to
// reserve disk space up front via fallocateFile.
func (idx *Index) SerializedSize() int64 {
	size := int64(headerSize) + int64(len(idx.bucketBeg))*4
	for _, t := range idx.tables {
		size += 24 + int64(t.NumSlots())*12 + int64(t.Signatures().ByteLen()) + int64(len(t.IDs()))*4
	}
	switch idx.store.Mode() {
	case verify.ModeVertical:
		size += int64(idx.store.VerticalVector().ByteLen())
	default:
		size += int64(idx.store.PlainVector().ByteLen())
	}
	size += int64(footerSize)
	return size
}

// WriteTo serializes the index to w, returning the number of bytes written.
// Implements io.WriterTo.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	hdr := header{
		Length:   uint32(idx.length),
		Alphabet: idx.alphabet,
		Buckets:  uint32(idx.buckets),
		NumKeys:  uint64(idx.numKeys),
		Mode:     uint8(idx.store.Mode()),
	}
	switch idx.store.Mode() {
	case verify.ModeVertical:
		hdr.LevelsOrWidth = uint32(idx.store.Levels())
	default:
		hdr.LevelsOrWidth = uint32(idx.store.Width())
	}
	hdrBuf := make([]byte, headerSize)
	hdr.encodeTo(hdrBuf)
	buf.Write(hdrBuf)

	begBuf := make([]byte, 4)
	for _, beg := range idx.bucketBeg {
		binary.LittleEndian.PutUint32(begBuf, uint32(beg))
		buf.Write(begBuf)
	}

	for _, t := range idx.tables {
		if err := writeTable(&buf, t); err != nil {
			return int64(buf.Len()), err
		}
	}

	writeVector(&buf, idx.store.Mode() == verify.ModeVertical, idx.store)

	checksum := xxhash.Sum64(buf.Bytes())
	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(footer[0:8], checksum)
	buf.Write(footer)

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func writeTable(buf *bytes.Buffer, t *odv.Table) error {
	meta := make([]byte, 24)
	slots := t.Slots()
	sig := t.Signatures()
	numSigs := sig.Len() / t.BucketLen()
	binary.LittleEndian.PutUint32(meta[0:4], uint32(t.BucketLen()))
	binary.LittleEndian.PutUint32(meta[4:8], t.DelMarker())
	binary.LittleEndian.PutUint32(meta[8:12], uint32(t.Width()))
	binary.LittleEndian.PutUint32(meta[12:16], uint32(len(slots)))
	binary.LittleEndian.PutUint32(meta[16:20], uint32(numSigs))
	binary.LittleEndian.PutUint32(meta[20:24], uint32(len(t.IDs())))
	buf.Write(meta)

	slotBuf := make([]byte, 12)
	for _, s := range slots {
		binary.LittleEndian.PutUint32(slotBuf[0:4], s.SigOffset)
		binary.LittleEndian.PutUint32(slotBuf[4:8], s.IDBegin)
		binary.LittleEndian.PutUint32(slotBuf[8:12], s.IDEnd)
		buf.Write(slotBuf)
	}

	buf.Write(sig.Bytes())

	idBuf := make([]byte, 4)
	for _, id := range t.IDs() {
		binary.LittleEndian.PutUint32(idBuf, id)
		buf.Write(idBuf)
	}
	return nil
}

func writeVector(buf *bytes.Buffer, verticalMode bool, store *verify.Store) {
	var v *bitpack.Vector
	if verticalMode {
		v = store.VerticalVector()
	} else {
		v = store.PlainVector()
	}
	buf.Write(v.Bytes())
}

// ReadFrom deserializes an Index previously written by WriteTo, reading all
// of r. Checks the header's magic and version (ErrInvalidMagic,
// ErrInvalidVersion), then validates the trailing checksum before trusting
// any offsets (ErrChecksumFailed on mismatch). Data shorter than a header
// plus footer yields ErrTruncatedData; longer data that ends early usually
// surfaces as ErrChecksumFailed.
func ReadFrom(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseIndex(data)
}

// parseIndex decodes an Index from a complete in-memory image, shared by
// ReadFrom (a freshly read buffer) and persist_file.go's OpenFile/OpenBytes
// (a memory-mapped or caller-owned buffer). The bitpack vectors it builds
// (ODV signatures, the vertical/plain key store) alias data directly rather
// than copying out of it (bitpack.FromBytes), so data must remain valid and
// unmodified for as long as the returned Index is in use — the caller must
// not unmap or discard it until the Index is done with it (Close, for an
// OpenFile-backed Index).
func parseIndex(data []byte) (*Index, error) {
	if len(data) < headerSize+footerSize {
		return nil, hmerrors.ErrTruncatedData
	}

	hdr, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	body := data[:len(data)-footerSize]
	footer := data[len(data)-footerSize:]
	wantChecksum := binary.LittleEndian.Uint64(footer[0:8])
	if xxhash.Sum64(body) != wantChecksum {
		return nil, hmerrors.ErrChecksumFailed
	}

	off := headerSize
	buckets := int(hdr.Buckets)
	bucketBeg := make([]int, buckets+1)
	for b := 0; b <= buckets; b++ {
		if off+4 > len(body) {
			return nil, hmerrors.ErrTruncatedData
		}
		bucketBeg[b] = int(binary.LittleEndian.Uint32(body[off : off+4]))
		off += 4
	}

	tables := make([]*odv.Table, buckets)
	for b := 0; b < buckets; b++ {
		t, newOff, err := readTable(body, off)
		if err != nil {
			return nil, err
		}
		tables[b] = t
		off = newOff
	}

	numKeys := int(hdr.NumKeys)
	length := int(hdr.Length)
	var store *verify.Store
	switch verify.Mode(hdr.Mode) {
	case verify.ModeVertical:
		levels := int(hdr.LevelsOrWidth)
		v, err := bitpack.FromBytes(body[off:], numKeys*levels, length)
		if err != nil {
			return nil, hmerrors.ErrTruncatedData
		}
		store = verify.FromVertical(v, length, levels, numKeys)
	case verify.ModePlain:
		width := int(hdr.LevelsOrWidth)
		v, err := bitpack.FromBytes(body[off:], numKeys*length, width)
		if err != nil {
			return nil, hmerrors.ErrTruncatedData
		}
		store = verify.FromPlain(v, length, width, numKeys)
	default:
		return nil, hmerrors.ErrIndexCorrupt
	}

	return &Index{
		length:    length,
		alphabet:  hdr.Alphabet,
		buckets:   buckets,
		bucketBeg: bucketBeg,
		tables:    tables,
		store:     store,
		numKeys:   numKeys,
	}, nil
}

func readTable(body []byte, off int) (*odv.Table, int, error) {
	if off+24 > len(body) {
		return nil, 0, hmerrors.ErrTruncatedData
	}
	meta := body[off : off+24]
	bucketLen := int(binary.LittleEndian.Uint32(meta[0:4]))
	delMarker := binary.LittleEndian.Uint32(meta[4:8])
	width := int(binary.LittleEndian.Uint32(meta[8:12]))
	numSlots := int(binary.LittleEndian.Uint32(meta[12:16]))
	numSigs := int(binary.LittleEndian.Uint32(meta[16:20]))
	numIDs := int(binary.LittleEndian.Uint32(meta[20:24]))
	off += 24

	if off+numSlots*12 > len(body) {
		return nil, 0, hmerrors.ErrTruncatedData
	}
	slots := make([]odv.Slot, numSlots)
	for i := 0; i < numSlots; i++ {
		s := body[off+i*12 : off+i*12+12]
		slots[i] = odv.Slot{
			SigOffset: binary.LittleEndian.Uint32(s[0:4]),
			IDBegin:   binary.LittleEndian.Uint32(s[4:8]),
			IDEnd:     binary.LittleEndian.Uint32(s[8:12]),
		}
	}
	off += numSlots * 12

	sigVec, err := bitpack.FromBytes(body[off:], numSigs*bucketLen, width)
	if err != nil {
		return nil, 0, hmerrors.ErrTruncatedData
	}
	off += sigVec.ByteLen()

	if off+numIDs*4 > len(body) {
		return nil, 0, hmerrors.ErrTruncatedData
	}
	ids := make([]uint32, numIDs)
	for i := 0; i < numIDs; i++ {
		ids[i] = binary.LittleEndian.Uint32(body[off+i*4 : off+i*4+4])
	}
	off += numIDs * 4

	return odv.FromParts(slots, sigVec, ids, bucketLen, delMarker), off, nil
}
