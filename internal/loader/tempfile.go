package loader

import (
	"fmt"
	"os"
	"path/filepath"
)

// withTempFile writes data to a transient file carrying name's extension and
// passes its path to fn. The file is removed before withTempFile returns.
func withTempFile(name string, data []byte, fn func(path string) error) error {
	f, err := os.CreateTemp("", "docchat-*"+filepath.Ext(name))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return fn(path)
}
