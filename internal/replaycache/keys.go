package replaycache

import "encoding/binary"

var (
	cachePrefix  = []byte("replay/")
	metaKey      = []byte("replay/m")
	commitPrefix = []byte("replay/c/")
)

// KeyCommit builds the key of one commit record.
func KeyCommit(ticks int64, id [16]byte) []byte {
	k := make([]byte, 0, len(commitPrefix)+8+16)
	k = append(k, commitPrefix...)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(ticks))
	k = append(k, b[:]...)
	k = append(k, id[:]...)
	return k
}

func parseCommitKey(k []byte) (ticks int64, id [16]byte, ok bool) {
	if len(k) != len(commitPrefix)+8+16 {
		return 0, id, false
	}
	rest := k[len(commitPrefix):]
	ticks = int64(binary.BigEndian.Uint64(rest[:8]))
	copy(id[:], rest[8:])
	return ticks, id, true
}
