package blobstore

import (
	"crypto/sha256"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
)

// sha2-256 multihash prefix: function code, then digest length.
const (
	mhSHA256Code   = 0x12
	mhSHA256Length = 0x20
)

// encodeMultihash wraps a sha2-256 digest in its multihash prefix and
// base58btc-encodes it, yielding the familiar Qm form.
func encodeMultihash(digest []byte) string {
	mh := make([]byte, 2, 2+len(digest))
	mh[0] = mhSHA256Code
	mh[1] = mhSHA256Length
	mh = append(mh, digest...)
	return base58.Encode(mh)
}

// CID derives the content address of a blob from its bytes.
func CID(data []byte) string {
	digest := sha256.Sum256(data)
	return encodeMultihash(digest[:])
}

// DirEntry names one blob inside a directory listing.
type DirEntry struct {
	Name string
	CID  string
}

// DirCID derives the content address of a directory from its canonical
// listing: entries sorted by name, each serialized as name, NUL, entry
// CID, LF. Listing order on input does not matter.
func DirCID(entries []DirEntry) string {
	sorted := make([]DirEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, entry := range sorted {
		b.WriteString(entry.Name)
		b.WriteByte(0)
		b.WriteString(entry.CID)
		b.WriteByte('\n')
	}
	return CID([]byte(b.String()))
}

// IsCID reports whether s parses as a content address this node could
// have produced.
func IsCID(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(raw) == 2+mhSHA256Length && raw[0] == mhSHA256Code && raw[1] == mhSHA256Length
}
