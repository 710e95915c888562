// Package catalog defines the documents of an append-only, paginated JSON
// catalog and their wire format.
//
// A catalog is one Index document pointing at many Page documents. Each Page
// holds at most MaxItemsPerPage leaf items and only the newest page, the one
// whose PageItem carries the Index's own commitId, may grow. Everything else
// is sealed.
//
// Wire format
//
//   - Timestamps are UTC and always render as yyyy-MM-ddTHH:mm:ss.fffffffZ.
//   - Encoding does not HTML-escape; see Marshal.
//   - Field order follows the struct declarations in types.go and must not
//     change, since readers compare documents byte for byte.
package catalog
