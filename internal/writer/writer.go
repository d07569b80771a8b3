package writer

import (
	"fmt"
	"io"
	"os"
)

// FileWriter wraps an *os.File for writing SOM object files. It provides
// address-based allocation (via Allocator), write-at/read-at operations,
// and flush control — the primitive the two-pass layout in §4.6 is built
// from (begin_writing allocates header/dict/string regions; later code
// seeks back and rewrites them once sizes are known).
//
// Not safe for concurrent use (spec §5: single-threaded, cooperative).
type FileWriter struct {
	file      *os.File
	allocator *Allocator
}

// CreateMode specifies the file creation behavior.
type CreateMode int

const (
	// ModeTruncate creates a new file, truncating if it exists.
	ModeTruncate CreateMode = iota

	// ModeExclusive creates a new file, failing if it already exists.
	ModeExclusive
)

// NewFileWriter opens filename for writing and wraps it with an allocator
// seeded at initialOffset (typically the fixed SOM header size).
func NewFileWriter(filename string, mode CreateMode, initialOffset uint64) (*FileWriter, error) {
	var osFile *os.File
	var err error

	switch mode {
	case ModeTruncate:
		osFile, err = os.Create(filename)
	case ModeExclusive:
		osFile, err = os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	default:
		return nil, fmt.Errorf("invalid create mode: %d", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &FileWriter{
		file:      osFile,
		allocator: NewAllocator(initialOffset),
	}, nil
}

// Allocate reserves size bytes and returns the address. The space is not
// zeroed; the caller must write the full region.
func (w *FileWriter) Allocate(size uint64) (uint64, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}
	return w.allocator.Allocate(size)
}

// AllocateAligned reserves size bytes at the next multiple of align.
func (w *FileWriter) AllocateAligned(size, align uint64) (uint64, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}
	return w.allocator.AllocateAligned(size, align)
}

// WriteAt writes data at a specific file address, implementing io.WriterAt.
func (w *FileWriter) WriteAt(data []byte, offset int64) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}
	if len(data) == 0 {
		return 0, nil
	}

	n, err := w.file.WriteAt(data, offset)
	if err != nil {
		return n, fmt.Errorf("write at address %d failed: %w", offset, err)
	}
	if n != len(data) {
		return n, fmt.Errorf("incomplete write at address %d: wrote %d of %d bytes", offset, n, len(data))
	}
	return n, nil
}

// WriteAtAddress is WriteAt with a uint64 address, matching the addresses
// Allocate returns.
func (w *FileWriter) WriteAtAddress(data []byte, addr uint64) error {
	_, err := w.WriteAt(data, int64(addr))
	return err
}

// ReadAt reads data back at a specific address, implementing io.ReaderAt.
// FinishWriting does not read back: it re-encodes the dictionaries from
// its Input.
func (w *FileWriter) ReadAt(buf []byte, addr int64) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}
	return w.file.ReadAt(buf, addr)
}

// EndOfFile returns the current end-of-file address — the address the
// next allocation would receive.
func (w *FileWriter) EndOfFile() uint64 {
	return w.allocator.EndOfFile()
}

// Flush commits all writes to disk.
func (w *FileWriter) Flush() error {
	if w.file == nil {
		return fmt.Errorf("writer is closed")
	}
	return w.file.Sync()
}

// Close closes the underlying file. Does not flush first.
func (w *FileWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// File returns the underlying *os.File for advanced use (e.g. truncating
// to the final length computed by finish_writing).
func (w *FileWriter) File() *os.File {
	return w.file
}

// Allocator returns the space allocator, mainly for tests and diagnostics.
func (w *FileWriter) Allocator() *Allocator {
	return w.allocator
}

// WriteAtWithAllocation allocates len(data) bytes and writes data there in
// one call, returning the address.
func (w *FileWriter) WriteAtWithAllocation(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("cannot write empty data")
	}
	addr, err := w.Allocate(uint64(len(data)))
	if err != nil {
		return 0, err
	}
	if err := w.WriteAtAddress(data, addr); err != nil {
		return 0, err
	}
	return addr, nil
}

// Seek implements io.Seeker for compatibility with readers that expect it;
// SOM addressing is absolute so this is rarely needed directly.
func (w *FileWriter) Seek(offset int64, whence int) (int64, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}
	return w.file.Seek(offset, whence)
}

var (
	_ io.ReaderAt = (*FileWriter)(nil)
	_ io.WriterAt = (*FileWriter)(nil)
)
