package blob

// Keyspace:
// - blob/seq                        last assigned ETag sequence (be8)
// - blob/c/{container}              container meta (json)
// - blob/b/{container}/{name}       blob record (header json | data)

var (
	keySeq          = []byte("blob/seq")
	containerPrefix = []byte("blob/c/")
	blobPrefix      = []byte("blob/b/")
)

func keyContainer(container string) []byte {
	k := make([]byte, 0, len(containerPrefix)+len(container))
	k = append(k, containerPrefix...)
	return append(k, container...)
}

// keyBlobs is the prefix shared by every blob in container.
func keyBlobs(container string) []byte {
	k := make([]byte, 0, len(blobPrefix)+len(container)+1)
	k = append(k, blobPrefix...)
	k = append(k, container...)
	return append(k, '/')
}

func keyBlob(container, name string) []byte {
	k := keyBlobs(container)
	return append(k, name...)
}
