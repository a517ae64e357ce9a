// Package pack implements the scanner and reader for the proprietary game
// archive format: a monolithic file with no external index, whose
// sub-files are discovered by sweeping the mapped bytes for record
// headers. See scan.go for the resynchronizing scanner and tree.go for the
// FileTreeNode shape.
package pack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	art "github.com/plar/go-adaptive-radix-tree/v2"

	"github.com/packhound/scape/xorstream"
)

// Kind identifies the pack variant detected from the first five bytes.
type Kind int

const (
	Unknown Kind = iota
	Encrypted
	Decrypted
)

func (k Kind) String() string {
	switch k {
	case Encrypted:
		return "encrypted"
	case Decrypted:
		return "decrypted"
	default:
		return "unknown"
	}
}

var (
	encryptedMagic = []byte{0x71, 0x40, 0xBD, 0x73, 0x93}
	decryptedMagic = []byte{0x50, 0x4C, 0x50, 0x63, 0x4B}
)

// ErrUnknownKind is returned by Scan when the archive's first five bytes
// match neither the encrypted nor the decrypted magic. Open does not return
// it; such an archive opens with Kind() == Unknown.
var ErrUnknownKind = errors.New("pack: unknown archive kind")

// ErrOutOfRange is returned by Read when a leaf's byte range does not lie
// within the archive.
var ErrOutOfRange = errors.New("pack: file range out of bounds")

// Archive owns the memory-mapped pack bytes, the pack variant, and the
// file tree built by Scan. Archive is not safe for concurrent Scan calls;
// Read is safe for concurrent use by multiple readers once Scan has
// completed, since the mapped bytes are read-only and the tree is never
// mutated after scanning.
type Archive struct {
	file *os.File
	data mmap.MMap
	kind Kind

	root  *FileTreeNode
	index art.Tree // full path ([]byte) -> *FileTreeNode, built during Scan
}

// Open maps path read-only and classifies its pack variant. It does not
// scan for records; call Scan for that. An archive shorter than 5 bytes,
// or one whose magic matches neither known variant, opens successfully
// with Kind() == Unknown — Unknown is terminal for Scan, not for Open.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pack: open %s: %w", path, err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pack: mmap %s: %w", path, err)
	}

	a := &Archive{
		file:  f,
		data:  m,
		root:  newFolder("root", ""),
		index: art.New(),
	}

	switch {
	case len(m) < 5:
		a.kind = Unknown
	case bytes.Equal(m[:5], encryptedMagic):
		a.kind = Encrypted
	case bytes.Equal(m[:5], decryptedMagic):
		a.kind = Decrypted
	default:
		a.kind = Unknown
	}

	return a, nil
}

// Close unmaps the archive bytes and closes the underlying file.
func (a *Archive) Close() error {
	if err := a.data.Unmap(); err != nil {
		a.file.Close()
		return err
	}
	return a.file.Close()
}

// Kind reports the detected pack variant.
func (a *Archive) Kind() Kind {
	return a.kind
}

// Size reports the total byte length of the mapped archive.
func (a *Archive) Size() int64 {
	return int64(len(a.data))
}

// Tree returns the root folder node built by the most recent Scan. Prior
// to any Scan it is an empty "root" folder.
func (a *Archive) Tree() *FileTreeNode {
	return a.root
}

// Lookup finds a node by its full slash-separated path using the
// ART-backed index built during Scan, in O(len(path)) time rather than
// walking the folder tree level by level.
func (a *Archive) Lookup(path string) (*FileTreeNode, bool) {
	v, found := a.index.Search(art.Key(path))
	if !found {
		return nil, false
	}
	return v.(*FileTreeNode), true
}

// Read materializes a leaf's bytes: validates the range against the
// archive size, copies it into a fresh buffer, and — for Encrypted
// archives — decrypts it with the XOR keystream phased at the leaf's
// absolute file offset.
func (a *Archive) Read(leaf *FileTreeNode) ([]byte, error) {
	if leaf.Kind != NodeFile {
		return nil, errors.New("pack: Read called on a folder node")
	}
	end := leaf.Offset + leaf.Size
	if leaf.Offset >= uint64(len(a.data)) || end > uint64(len(a.data)) {
		return nil, ErrOutOfRange
	}

	out := make([]byte, leaf.Size)
	copy(out, a.data[leaf.Offset:end])

	if a.kind == Encrypted {
		xorstream.Apply(out, int64(leaf.Offset))
	}
	return out, nil
}

// progressEvery is the boundary spacing for Scan's progress callback and
// context check, matching the original scanner's cursor&0xFFFF==0 test: they
// run only when the cursor sits exactly on a multiple of 64 KiB, so a
// boundary the cursor jumps over gets no report.
const progressEvery = 1 << 16

func checkCanceled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
