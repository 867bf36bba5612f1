package export

import (
	"context"
	"io"

	"tpchArrow/src/util"

	"github.com/pingcap/tidb/br/pkg/storage"
)

// writerWithStats wraps a writer and updates progress for bytes written.
type writerWithStats struct {
	writer   storage.ExternalFileWriter
	progress *util.ProgressLogger
	written  int64
}

func (cw *writerWithStats) Write(ctx context.Context, p []byte) (int, error) {
	n, err := cw.writer.Write(ctx, p)
	cw.written += int64(n)
	if cw.progress != nil {
		cw.progress.UpdateBytes(int64(n))
	}
	return n, err
}

func (cw *writerWithStats) Close(ctx context.Context) error {
	return cw.writer.Close(ctx)
}

// writeWrapper exposes an ExternalFileWriter as an io.Writer for encoders.
// Close is a no-op; the owner closes the underlying writer.
type writeWrapper struct {
	ctx    context.Context
	Writer storage.ExternalFileWriter
}

var _ io.WriteCloser = (*writeWrapper)(nil)

func (ww *writeWrapper) Write(b []byte) (int, error) {
	return ww.Writer.Write(ww.ctx, b)
}

func (ww *writeWrapper) Close() error {
	return nil
}
