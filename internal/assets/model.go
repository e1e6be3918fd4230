package assets

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MappedModel is a read-only memory map of a model file
type MappedModel struct {
	path string
	data []byte
}

// MapModel memory-maps the model file at path
func MapModel(path string) (*MappedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat model file: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("model file %s is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to map model file: %w", err)
	}

	return &MappedModel{path: path, data: data}, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (m *MappedModel) Bytes() []byte {
	return m.data
}

// Path returns the file the model was mapped from
func (m *MappedModel) Path() string {
	return m.path
}

// Close unmaps the model
func (m *MappedModel) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("failed to unmap model file: %w", err)
	}
	return nil
}
