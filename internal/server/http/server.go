package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/joelverhagen/json-append-log/internal/blob"
	"github.com/joelverhagen/json-append-log/internal/runtime"
	"github.com/joelverhagen/json-append-log/pkg/log"
)

// maxBlobBytes caps a single upload.
const maxBlobBytes = 64 << 20

// Server serves the blob REST API over a Runtime.
type Server struct {
	rt     *runtime.Runtime
	blobs  *blob.Service
	logger log.Logger
	srv    *http.Server
	lis    net.Listener
}

// New builds the server and its routes.
func New(rt *runtime.Runtime, logger log.Logger) *Server {
	mux := http.NewServeMux()
	logger = log.OrDefault(logger, "http")
	s := &Server{
		rt:     rt,
		blobs:  rt.Blobs(),
		logger: logger,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          log.ToStdLogger(logger, log.WarnLevel),
		},
	}
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("PUT /{container}", s.handleCreateContainer)
	mux.HandleFunc("GET /{container}", s.handleGetContainer)
	mux.HandleFunc("DELETE /{container}", s.handleDeleteContainer)
	mux.HandleFunc("PUT /{container}/{name...}", s.handlePutBlob)
	mux.HandleFunc("GET /{container}/{name...}", s.handleGetBlob)
	return s
}

// Handler exposes the route table, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close closes the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleCreateContainer(w http.ResponseWriter, r *http.Request) {
	container := r.PathValue("container")
	if err := s.blobs.CreateContainer(r.Context(), container); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	container := r.PathValue("container")
	ok, err := s.blobs.ContainerExists(r.Context(), container)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, blob.ErrContainerNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"name": container})
}

func (s *Server) handleDeleteContainer(w http.ResponseWriter, r *http.Request) {
	if err := s.blobs.DeleteContainer(r.Context(), r.PathValue("container")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handlePutBlob(w http.ResponseWriter, r *http.Request) {
	container, name := r.PathValue("container"), r.PathValue("name")
	opts := blob.PutOptions{
		ContentType: r.Header.Get("Content-Type"),
		IfMatch:     r.Header.Get("If-Match"),
	}
	switch v := r.Header.Get("If-None-Match"); v {
	case "":
	case "*":
		opts.IfNoneMatch = true
	default:
		s.writeStatus(w, http.StatusBadRequest, blob.CodeInvalidName, "only If-None-Match: * is supported")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBlobBytes))
	if err != nil {
		s.writeStatus(w, http.StatusRequestEntityTooLarge, blob.CodeInternal, err.Error())
		return
	}
	etag, err := s.blobs.Put(r.Context(), container, name, data, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	b, err := s.blobs.Get(r.Context(), r.PathValue("container"), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", b.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(b.Data)))
	h.Set("ETag", b.ETag)
	h.Set("Last-Modified", b.LastModified.UTC().Format(http.TimeFormat))
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(b.Data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := blob.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case blob.CodeBlobNotFound, blob.CodeContainerNotFound:
		status = http.StatusNotFound
	case blob.CodeConflict:
		status = http.StatusConflict
	case blob.CodePreconditionFailed:
		status = http.StatusPreconditionFailed
	case blob.CodeInvalidName:
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", log.Str("method", r.Method), log.Str("path", r.URL.Path), log.Err(err))
	}
	s.writeStatus(w, status, code, err.Error())
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(blob.ErrorBody{Code: code, Message: msg})
}
