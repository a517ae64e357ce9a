package table

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

// rotate encrypts plaintext with rotation i of the static key, matching
// what a real pack producer would have done with rotation i at build time.
func rotate(i int, plaintext []byte) []byte {
	key := staticKey()
	out := make([]byte, len(plaintext))
	for j := range plaintext {
		out[j] = plaintext[j] ^ key[(i+j)%256]
	}
	return out
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// buildChainEntry serializes one hash-chain node: entry_size, type,
// name_length, data_length, next_chain_offset (UInt40), name, data.
func buildChainEntry(name string, data []byte, next uint64) []byte {
	entrySize := 4 + 1 + 1 + 4 + 5 + len(name) + len(data)
	buf := make([]byte, 0, entrySize)
	buf = append(buf, u32le(uint32(entrySize))...)
	buf = append(buf, 0x01)        // type
	buf = append(buf, byte(len(name)))
	buf = append(buf, u32le(uint32(len(data)))...)
	buf = append(buf, byte(next>>32))
	buf = append(buf, u32le(uint32(next))...)
	buf = append(buf, name...)
	buf = append(buf, data...)
	return buf
}

// buildMinimalTable constructs a plaintext (pre-XOR) table container with
// one hash bucket holding rows/cols + one column + one row's worth of
// entries, chained via next_chain_offset per §4.6's layout.
func buildMinimalTable() []byte {
	const headerLen = 0x26
	const hashRegionLen = 5 + 5*1 // root entry + one bucket slot
	chainBase := headerLen + hashRegionLen

	type rec struct {
		name string
		data []byte
	}
	recs := []rec{
		{"\trows", u32le(1)},
		{"\tcols", u32le(1)},
		{"\t0", []byte("name")},
		{"\t\t0", []byte("row0_payload")},
		{"row0_payload", []byte("Alice\x0030")},
	}

	entrySize := func(r rec) int { return 4 + 1 + 1 + 4 + 5 + len(r.name) + len(r.data) }

	offsets := make([]int, len(recs))
	cursor := chainBase
	for i, r := range recs {
		offsets[i] = cursor
		cursor += entrySize(r)
	}

	var chainArea bytes.Buffer
	for i, r := range recs {
		next := uint64(0)
		if i+1 < len(recs) {
			next = uint64(offsets[i+1])
		}
		chainArea.Write(buildChainEntry(r.name, r.data, next))
	}

	bucketOffset := uint64(offsets[0])

	var header bytes.Buffer
	header.Write([]byte("PLPcK"))    // magic
	header.WriteByte(1)              // version
	header.Write([]byte{0x26, 0x00}) // header_size
	header.WriteByte(0)              // unk
	header.Write(make([]byte, 8))    // unk1
	header.Write(u32le(0))           // default_file_count
	header.Write(u32le(1))           // hash_table_count = 1
	hashTableOffset := uint64(headerLen)
	header.WriteByte(byte(hashTableOffset >> 32))
	header.Write(u32le(uint32(hashTableOffset)))
	header.Write(make([]byte, 8)) // unk5

	var hashTable bytes.Buffer
	hashTable.Write(u32le(5 * (1 + 1))) // root entry size
	hashTable.WriteByte(1)              // root entry marker byte
	hashTable.WriteByte(byte(bucketOffset >> 32))
	hashTable.Write(u32le(uint32(bucketOffset)))

	var out bytes.Buffer
	out.Write(header.Bytes())
	out.Write(hashTable.Bytes())
	out.Write(chainArea.Bytes())
	return out.Bytes()
}

func TestDecryptFindsRotation(t *testing.T) {
	plain := buildMinimalTable()
	encrypted := rotate(37, plain)

	decrypted, err := decrypt(encrypted)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decrypted[:5], []byte("PLPcK")) {
		t.Fatalf("decrypted magic = %q", decrypted[:5])
	}
}

func TestDecryptNoRotationMatches(t *testing.T) {
	_, err := decrypt([]byte("nonsense"))
	if err != ErrKeyNotFound {
		t.Fatalf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestDecodeGarbageProducesEmptyObject(t *testing.T) {
	// Garbage input decrypts to nothing usable; Decode must not panic and
	// must fall back to "{}".
	got := Decode([]byte("garbage input that matches no rotation"))
	if got != "{}" {
		t.Fatalf("Decode = %q, want {}", got)
	}
}

func TestDecodeStreamRoundTrip(t *testing.T) {
	plain := buildMinimalTable()
	encrypted := rotate(12, plain)

	var buf bytes.Buffer
	if err := DecodeStream(encrypted, &buf); err != nil {
		t.Fatalf("DecodeStream error: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, `"name": "Alice"`) {
		t.Fatalf("output missing expected row field, got: %s", got)
	}
}
