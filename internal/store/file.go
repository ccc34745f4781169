package store

import "os"

// FileSlot stores the blob in a single cache file.
type FileSlot struct {
	path string
}

var _ Slot = (*FileSlot)(nil)

// NewFileSlot creates a slot backed by the file at path. The file is created
// on first write.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

func (s *FileSlot) Write(data []byte) error {
	return os.WriteFile(s.path, data, 0o644)
}

func (s *FileSlot) Read() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
