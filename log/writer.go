package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Writer 日志输出器接口
type Writer interface {
	io.Writer
	io.Closer
}

// NewWriter 根据 output 创建输出器
// - "" / "stdout": 标准输出
// - "stderr": 标准错误
// - "discard": 丢弃
// - 其他: 作为文件路径追加写入
func NewWriter(output string) (Writer, error) {
	switch output {
	case "", "stdout":
		return nopCloser{os.Stdout}, nil
	case "stderr":
		return nopCloser{os.Stderr}, nil
	case "discard":
		return nopCloser{io.Discard}, nil
	}
	return NewFileWriter(output)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// FileWriter 文件输出器
type FileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewFileWriter 创建文件输出器，目录不存在时自动创建
func NewFileWriter(path string) (*FileWriter, error) {
	if path == "" {
		return nil, errors.New("file path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory %s", dir)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file %s", path)
	}

	return &FileWriter{path: path, file: file}, nil
}

// Write 实现 io.Writer 接口
func (f *FileWriter) Write(p []byte) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, errors.Errorf("file %s is closed", f.path)
	}
	return f.file.Write(p)
}

// Close 实现 io.Closer 接口
func (f *FileWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file != nil {
		err := f.file.Close()
		f.file = nil
		return err
	}
	return nil
}
