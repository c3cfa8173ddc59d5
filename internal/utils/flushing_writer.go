package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes and flushes buffered writers after each write,
// keeping operator output ordered relative to the output of external commands.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. Writers that are already wrapped are returned unchanged.
func NewFlushingWriter(writer io.Writer) io.Writer {
	if writer == nil {
		return nil
	}
	if _, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return writer
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the underlying writer and flushes it when it buffers output.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if bufferedWriter, buffers := flushingWriter.writer.(flusher); buffers {
		if flushError := bufferedWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}

	return bytesWritten, nil
}
