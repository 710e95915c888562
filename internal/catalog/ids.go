package catalog

import (
	"strconv"
	"strings"
	"time"
)

// IndexID returns the index URL under catalogBase.
func IndexID(catalogBase string) string {
	return catalogBase + "index.json"
}

// PageID returns the URL of the n-th page (0-based) under catalogBase.
func PageID(catalogBase string, n int) string {
	return catalogBase + "page" + strconv.Itoa(n) + ".json"
}

// LeafID returns the leaf URL for a package event. The timestamp is truncated
// to the second, so events sharing all inputs map to the same id.
func LeafID(leafBase string, commitTimestamp time.Time, packageID, packageVersion string) string {
	var b strings.Builder
	b.WriteString(leafBase)
	b.WriteString("data/")
	b.WriteString(commitTimestamp.UTC().Format("2006.01.02.15.04.05"))
	b.WriteByte('/')
	b.WriteString(strings.ToLower(packageID))
	b.WriteByte('.')
	b.WriteString(strings.ToLower(packageVersion))
	b.WriteString(".json")
	return b.String()
}
