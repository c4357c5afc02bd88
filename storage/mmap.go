package storage

import (
	"fmt"
	"os"
	"syscall"
)

// mmapRegion is a memory-mapped view of one file. The mapping is owned
// by a single handle; callers must Close to release it.
type mmapRegion struct {
	data []byte
	file *os.File
}

// openMmap opens path and maps its full contents read-only.
func openMmap(path string) (*mmapRegion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap open: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap stat: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		return &mmapRegion{data: nil, file: f}, nil
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &mmapRegion{data: data, file: f}, nil
}

// Close unmaps the region and closes the underlying descriptor. Safe to
// call more than once.
func (m *mmapRegion) Close() error {
	var munmapErr error
	if m.data != nil {
		munmapErr = syscall.Munmap(m.data)
		m.data = nil
	}
	var fileErr error
	if m.file != nil {
		fileErr = m.file.Close()
		m.file = nil
	}
	if munmapErr != nil {
		return munmapErr
	}
	return fileErr
}

// writeMmap writes payload to path through a mapping sized exactly to
// the payload, avoiding a second in-kernel copy of large documents.
func writeMmap(path string, payload []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("mmap create: %w", err)
	}
	defer f.Close()

	if err := f.Truncate(int64(len(payload))); err != nil {
		return fmt.Errorf("mmap truncate: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, len(payload), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap: %w", err)
	}
	copy(data, payload)
	if err := syscall.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
