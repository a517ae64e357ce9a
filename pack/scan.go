package pack

import (
	"context"
	"encoding/binary"

	art "github.com/plar/go-adaptive-radix-tree/v2"

	"github.com/packhound/scape/xorstream"
)

const (
	headerSize    = 15
	maxNameLength = 1024
)

// header holds the 15 decrypted header bytes of a candidate record,
// parsed but not yet validated.
type header struct {
	containerLen uint32
	marker       uint8
	nameLen      uint8
	dataLen      uint32
}

func parseHeader(b []byte) header {
	return header{
		containerLen: binary.LittleEndian.Uint32(b[0:4]),
		marker:       b[4],
		nameLen:      b[5],
		dataLen:      binary.LittleEndian.Uint32(b[6:10]),
	}
}

func (h header) valid(packSize uint64) bool {
	if uint64(h.containerLen) > packSize || uint64(h.dataLen) > packSize {
		return false
	}
	if h.nameLen == 0 || h.nameLen > maxNameLength {
		return false
	}
	return uint32(h.containerLen) == uint32(h.nameLen)+h.dataLen+19
}

// Scan sweeps the whole archive for record headers, rebuilding the file
// tree from scratch. It is deterministic: two Scan calls over the same
// bytes produce equal trees. progress, if non-nil, is called with a value
// in [0,1] whenever the loop's cursor sits exactly on a multiple of 64 KiB,
// and once more with 1.0 at completion; ctx is checked at the same points.
// The cursor jumps over whole payloads, and in a decrypted pack straight to
// the next 0x02 byte, so boundaries it jumps over get neither a report nor
// a check, and a scan can run to its end without either. A canceled
// context seen at a check stops the scan early and returns ctx.Err(),
// leaving the tree built so far (possibly incomplete) in place.
func (a *Archive) Scan(ctx context.Context, progress func(float64)) error {
	if a.kind == Unknown {
		return ErrUnknownKind
	}

	a.root = newFolder("root", "")
	a.index = art.New()

	var err error
	if a.kind == Encrypted {
		err = a.scanEncrypted(ctx, progress)
	} else {
		err = a.scanDecrypted(ctx, progress)
	}
	if progress != nil {
		progress(1.0)
	}
	return err
}

func (a *Archive) scanEncrypted(ctx context.Context, progress func(float64)) error {
	data := a.data
	size := uint64(len(data))
	var headerBuf [headerSize]byte
	var nameBuf [maxNameLength]byte

	for cursor := uint64(0); cursor < size; {
		if cursor%progressEvery == 0 {
			if err := checkCanceled(ctx); err != nil {
				return err
			}
			if progress != nil {
				progress(float64(cursor) / float64(size))
			}
		}

		decoded := xorstream.ByteAt(data[cursor], int64(cursor))
		if decoded != 0x02 {
			cursor++
			continue
		}
		if cursor < 4 {
			cursor++
			continue
		}
		headerOffset := cursor - 4
		if headerOffset+headerSize > size {
			cursor++
			continue
		}

		copy(headerBuf[:], data[headerOffset:headerOffset+headerSize])
		xorstream.Apply(headerBuf[:], int64(headerOffset))
		h := parseHeader(headerBuf[:])
		if !h.valid(size) {
			cursor++
			continue
		}

		nameStart := headerOffset + headerSize
		if nameStart+uint64(h.nameLen) > size {
			cursor++
			continue
		}
		nameBytes := nameBuf[:h.nameLen]
		copy(nameBytes, data[nameStart:nameStart+uint64(h.nameLen)])
		xorstream.Apply(nameBytes, int64(nameStart))

		fileOffset := nameStart + uint64(h.nameLen)
		if fileOffset+uint64(h.dataLen) > size {
			cursor++
			continue
		}

		a.addFileToTree(string(nameBytes), fileOffset, uint64(h.dataLen))
		cursor = fileOffset + uint64(h.dataLen)
	}
	return nil
}

func (a *Archive) scanDecrypted(ctx context.Context, progress func(float64)) error {
	data := a.data
	size := uint64(len(data))

	for cursor := uint64(0); cursor < size; {
		if cursor%progressEvery == 0 {
			if err := checkCanceled(ctx); err != nil {
				return err
			}
			if progress != nil {
				progress(float64(cursor) / float64(size))
			}
		}

		idx := indexByte(data[cursor:], 0x02)
		if idx < 0 {
			break
		}
		cursor += uint64(idx)

		if cursor < 4 {
			cursor++
			continue
		}
		headerOffset := cursor - 4
		if headerOffset+headerSize > size {
			cursor++
			continue
		}

		h := parseHeader(data[headerOffset : headerOffset+headerSize])
		if !h.valid(size) {
			cursor++
			continue
		}

		nameStart := headerOffset + headerSize
		if nameStart+uint64(h.nameLen) > size {
			cursor++
			continue
		}
		name := string(data[nameStart : nameStart+uint64(h.nameLen)])
		fileOffset := nameStart + uint64(h.nameLen)

		if fileOffset+uint64(h.dataLen) <= size {
			a.addFileToTree(name, fileOffset, uint64(h.dataLen))
			cursor = fileOffset + uint64(h.dataLen)
		} else {
			cursor++
		}
	}
	return nil
}

// indexByte mirrors memchr: the first index of b within buf, or -1.
func indexByte(buf []byte, b byte) int {
	for i, c := range buf {
		if c == b {
			return i
		}
	}
	return -1
}
