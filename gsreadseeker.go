package pgsinherit

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Decorates a Google Storage object handle with io.Reader, io.Seeker and
// io.Closer. Derived from
// https://github.com/googleapis/google-cloud-go/issues/1124#issuecomment-419070541
// Only rewinding to the start is supported, which is all the compression
// sniffer needs.
type GSReadSeekCloser struct {
	*storage.ObjectHandle
	Context context.Context
	r       *storage.Reader
	pos     int64
}

func (s *GSReadSeekCloser) Read(buf []byte) (int, error) {
	var err error
	if s.r == nil {
		s.r, err = s.NewRangeReader(s.Context, 0, -1)
		if err != nil {
			return 0, err
		}
	}
	n, err := s.r.Read(buf)
	s.pos += int64(n)

	return n, err
}

func (s *GSReadSeekCloser) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart || offset != 0 {
		return s.pos, fmt.Errorf("GSReadSeekCloser can only seek to the start of the object, not %d (whence %d)", offset, whence)
	}

	// Seeking is not actually possible. As a proxy, we close the current
	// connection so the next Read opens a fresh one.
	if s.r != nil {
		s.r.Close()
		s.r = nil
	}
	s.pos = 0

	return 0, nil
}

func (s *GSReadSeekCloser) Close() error {
	if s.r == nil {
		return nil
	}
	err := s.r.Close()
	s.r = nil

	return err
}

// MaybeOpenSeekerFromGoogleStorage opens gs://bucket/path objects through
// client and anything else from the local filesystem. The returned size is in
// bytes.
func MaybeOpenSeekerFromGoogleStorage(ctx context.Context, path string, client *storage.Client) (ReadSeekCloser, int64, error) {
	if strings.HasPrefix(path, "gs://") {
		if client == nil {
			return nil, 0, fmt.Errorf("%s is a Google Storage path but no storage client was provided", path)
		}

		// Detect the bucket and the path to the actual file
		pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
		if len(pathParts) != 2 {
			return nil, 0, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
		}

		handle := client.Bucket(pathParts[0]).Object(pathParts[1])

		wrappedHandle := &GSReadSeekCloser{
			ObjectHandle: handle,
			Context:      ctx,
		}

		// Make a hard call to get the filesize
		attrs, err := wrappedHandle.ObjectHandle.Attrs(ctx)
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return wrappedHandle, attrs.Size, nil
	}

	f, err := os.Open(ExpandHome(path))
	if err != nil {
		return nil, 0, pfx.Err(err)
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, pfx.Err(err)
	}

	return f, fstat.Size(), nil
}

// OpenMaybeCompressed opens a local or gs:// path and transparently
// decompresses it. Closing the result closes the underlying source as well.
func OpenMaybeCompressed(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	src, _, err := MaybeOpenSeekerFromGoogleStorage(ctx, path, client)
	if err != nil {
		return nil, err
	}

	rc, err := MaybeDecompressReadCloser(src)
	if err != nil {
		src.Close()
		return nil, err
	}

	return &stackedCloser{ReadCloser: rc, src: src}, nil
}

type stackedCloser struct {
	io.ReadCloser
	src io.Closer
}

func (s *stackedCloser) Close() error {
	err := s.ReadCloser.Close()

	// Uncompressed sources are returned as-is by the decompressor
	if io.Closer(s.ReadCloser) == s.src {
		return err
	}

	if srcErr := s.src.Close(); err == nil {
		err = srcErr
	}

	return err
}
