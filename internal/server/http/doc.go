// Package httpserver exposes the blob service over HTTP.
//
// Routes:
//
//	GET    /healthz
//	PUT    /{container}            create, 409 when present
//	GET    /{container}            200 or 404
//	DELETE /{container}            delete with all blobs
//	PUT    /{container}/{name...}  upload; If-None-Match: * or If-Match: <etag>
//	GET    /{container}/{name...}  download with ETag
//
// Failures carry a JSON body {"code", "message"} that blob.Client maps back
// to the blob package's sentinel errors.
package httpserver
