// Package simulate drives a writer.Writer from a commit source.
//
// Commits are buffered until the buffer would exceed twice a page worth of
// events, then drained through the writer. In batch mode each writer call
// consumes the longest prefix that fits one page mutation; in single mode
// commits are written one at a time. Conflicts are retried by re-invoking the
// writer, which re-reads the catalog.
package simulate
