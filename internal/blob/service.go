package blob

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
	"github.com/joelverhagen/json-append-log/pkg/log"
)

// Blob is a stored object and its properties.
type Blob struct {
	Name         string
	ContentType  string
	ETag         string
	LastModified time.Time
	Data         []byte
}

// PutOptions carries the content type and an optional precondition.
type PutOptions struct {
	ContentType string
	// IfMatch requires the stored ETag to equal this value.
	IfMatch string
	// IfNoneMatch requires the blob to be absent.
	IfNoneMatch bool
}

type blobHeader struct {
	ETag         string `json:"etag"`
	ContentType  string `json:"contentType"`
	ModifiedAtMs int64  `json:"modifiedAtMs"`
}

type containerMeta struct {
	Name        string `json:"name"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// Service stores containers and blobs in Pebble.
type Service struct {
	db     *pebblestore.DB
	logger log.Logger
	now    func() time.Time

	mu  sync.Mutex
	seq uint64
}

// NewService loads the ETag sequence and returns a ready Service.
func NewService(db *pebblestore.DB, logger log.Logger) (*Service, error) {
	s := &Service{db: db, logger: log.OrDefault(logger, "blob"), now: time.Now}
	b, err := db.Get(keySeq)
	switch {
	case err == nil && len(b) >= 8:
		s.seq = binary.BigEndian.Uint64(b[:8])
	case err == nil, errors.Is(err, pebblestore.ErrNotFound):
	default:
		return nil, fmt.Errorf("blob: load sequence: %w", err)
	}
	return s, nil
}

// FormatETag renders a sequence number as an opaque quoted tag.
func FormatETag(seq uint64) string {
	return fmt.Sprintf("\"0x%016X\"", seq)
}

// CreateContainer creates an empty container. ErrConflict if it exists.
func (s *Service) CreateContainer(ctx context.Context, container string) error {
	if err := ValidateContainerName(container); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.db.Has(keyContainer(container))
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: container %s", ErrConflict, container)
	}
	meta, err := json.Marshal(containerMeta{Name: container, CreatedAtMs: s.now().UnixMilli()})
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(keyContainer(container), meta, nil); err != nil {
		return err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return err
	}
	s.logger.Debug("container created", log.Str("container", container))
	return nil
}

// DeleteContainer removes a container and every blob in it.
func (s *Service) DeleteContainer(ctx context.Context, container string) error {
	if err := ValidateContainerName(container); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.db.Has(keyContainer(container))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, container)
	}
	prefix := keyBlobs(container)
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(prefix, pebblestore.PrefixUpperBound(prefix), nil); err != nil {
		return err
	}
	if err := b.Delete(keyContainer(container), nil); err != nil {
		return err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return err
	}
	s.logger.Debug("container deleted", log.Str("container", container))
	return nil
}

// ContainerExists reports whether the container exists.
func (s *Service) ContainerExists(ctx context.Context, container string) (bool, error) {
	if err := ValidateContainerName(container); err != nil {
		return false, err
	}
	return s.db.Has(keyContainer(container))
}

// Get returns a blob with its data.
func (s *Service) Get(ctx context.Context, container, name string) (Blob, error) {
	if err := s.validate(container, name); err != nil {
		return Blob{}, err
	}
	raw, err := s.db.Get(keyBlob(container, name))
	if errors.Is(err, pebblestore.ErrNotFound) {
		if ok, cerr := s.db.Has(keyContainer(container)); cerr == nil && !ok {
			return Blob{}, fmt.Errorf("%w: %s", ErrContainerNotFound, container)
		}
		return Blob{}, fmt.Errorf("%w: %s/%s", ErrNotFound, container, name)
	}
	if err != nil {
		return Blob{}, err
	}
	return decodeBlob(name, raw)
}

// Put stores data under name, honouring the precondition in opts, and
// returns the new ETag.
func (s *Service) Put(ctx context.Context, container, name string, data []byte, opts PutOptions) (string, error) {
	if err := s.validate(container, name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.db.Has(keyContainer(container))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContainerNotFound, container)
	}

	key := keyBlob(container, name)
	if opts.IfNoneMatch || opts.IfMatch != "" {
		raw, err := s.db.Get(key)
		exists := err == nil
		if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
			return "", err
		}
		if opts.IfNoneMatch && exists {
			return "", fmt.Errorf("%w: %s/%s", ErrConflict, container, name)
		}
		if opts.IfMatch != "" {
			if !exists {
				return "", fmt.Errorf("%w: %s/%s does not exist", ErrPreconditionFailed, container, name)
			}
			current, err := decodeBlob(name, raw)
			if err != nil {
				return "", err
			}
			if current.ETag != opts.IfMatch {
				return "", fmt.Errorf("%w: %s/%s has %s, not %s", ErrPreconditionFailed, container, name, current.ETag, opts.IfMatch)
			}
		}
	}

	seq := s.seq + 1
	etag := FormatETag(seq)
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header, err := json.Marshal(blobHeader{ETag: etag, ContentType: contentType, ModifiedAtMs: s.now().UnixMilli()})
	if err != nil {
		return "", err
	}
	var seqb [8]byte
	binary.BigEndian.PutUint64(seqb[:], seq)

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(key, pebblestore.EncodeRecord(header, data), nil); err != nil {
		return "", err
	}
	if err := b.Set(keySeq, seqb[:], nil); err != nil {
		return "", err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return "", err
	}
	s.seq = seq
	return etag, nil
}

func (s *Service) validate(container, name string) error {
	if err := ValidateContainerName(container); err != nil {
		return err
	}
	return ValidateBlobName(name)
}

func decodeBlob(name string, raw []byte) (Blob, error) {
	rec, ok := pebblestore.DecodeRecord(raw)
	if !ok {
		return Blob{}, fmt.Errorf("blob: corrupt record for %s", name)
	}
	var h blobHeader
	if err := json.Unmarshal(rec.Header, &h); err != nil {
		return Blob{}, fmt.Errorf("blob: corrupt header for %s: %w", name, err)
	}
	return Blob{
		Name:         name,
		ContentType:  h.ContentType,
		ETag:         h.ETag,
		LastModified: time.UnixMilli(h.ModifiedAtMs).UTC(),
		Data:         rec.Payload,
	}, nil
}
