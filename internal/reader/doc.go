// Package reader fetches catalog documents over HTTP (or file:// URLs) and
// optionally checks that decoding and re-encoding reproduces the fetched
// bytes exactly.
package reader
