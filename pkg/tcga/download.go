package tcga

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/storage/disk"
)

// DownloadResult describes a completed download.
type DownloadResult struct {
	Path   string
	Bytes  int64
	Blocks int
}

// Download streams archiveURL to dest in blocks of blockSize bytes. The file only
// appears at dest once the whole body has been written; a failed download leaves
// nothing behind.
func (c *Client) Download(ctx context.Context, archiveURL, dest string, blockSize int) (DownloadResult, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	body, contentLength, err := c.Fetch(ctx, archiveURL)
	if err != nil {
		return DownloadResult{}, err
	}
	defer body.Close()

	log.Info().Str("url", archiveURL).Str("path", dest).Msg("Saving archive")

	af, err := disk.CreateAtomic(dest)
	if err != nil {
		return DownloadResult{}, &e.IOError{Path: dest, Err: err}
	}

	result, err := copyBlocks(af, body, blockSize)
	if err == nil && contentLength >= 0 && result.Bytes != contentLength {
		err = &e.TransportError{
			URL: archiveURL,
			Err: fmt.Errorf("short body: expected %d bytes, got %d", contentLength, result.Bytes),
		}
	}
	if err != nil {
		_ = af.Discard()
		var ioErr *e.IOError
		if errors.As(err, &ioErr) {
			ioErr.Path = dest
			return DownloadResult{}, ioErr
		}
		if ctx.Err() != nil {
			return DownloadResult{}, ctx.Err()
		}
		var transportErr *e.TransportError
		if errors.As(err, &transportErr) {
			transportErr.URL = archiveURL
		}
		return DownloadResult{}, err
	}

	if err = af.Commit(); err != nil {
		return DownloadResult{}, &e.IOError{Path: dest, Err: err}
	}

	result.Path = dest
	log.Debug().Str("path", dest).Int64("bytes", result.Bytes).Int("blocks", result.Blocks).Msg("Archive saved")
	return result, nil
}

// copyBlocks copies r to w one full block at a time; only the last block may be short.
func copyBlocks(w io.Writer, r io.Reader, blockSize int) (DownloadResult, error) {
	var result DownloadResult
	buf := make([]byte, blockSize)

	for {
		n, readErr := readBlock(r, buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return result, &e.IOError{Err: err}
			}
			result.Bytes += int64(n)
			result.Blocks++
		}
		if readErr == io.EOF {
			return result, nil
		}
		if readErr != nil {
			return result, &e.TransportError{Err: readErr}
		}
	}
}

// maxEmptyReads bounds consecutive (0, nil) reads before a body is treated as stuck.
const maxEmptyReads = 100

func readBlock(r io.Reader, buf []byte) (int, error) {
	n, empty := 0, 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m > 0 {
			empty = 0
			continue
		}
		empty++
		if empty >= maxEmptyReads {
			return n, io.ErrNoProgress
		}
	}
	return n, nil
}
