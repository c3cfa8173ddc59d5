package octopus

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
)

const (
	setVariableMessageTemplateConstant    = "##octopus[setVariable name='%s' value='%s']\n"
	createArtifactMessageTemplateConstant = "##octopus[createArtifact path='%s' name='%s' length='%s']\n"
)

// ServiceMessageWriter emits Octopus service messages. Attribute values are base64 encoded
// so that quotes and brackets in paths or values never terminate the message early.
type ServiceMessageWriter struct {
	writer io.Writer
}

// NewServiceMessageWriter constructs a writer. A nil writer discards messages.
func NewServiceMessageWriter(writer io.Writer) ServiceMessageWriter {
	if writer == nil {
		writer = io.Discard
	}
	return ServiceMessageWriter{writer: writer}
}

// SetVariable publishes an output variable available to later deployment steps.
func (messageWriter ServiceMessageWriter) SetVariable(name string, value string) error {
	_, writeError := fmt.Fprintf(messageWriter.writer, setVariableMessageTemplateConstant, encodeAttribute(name), encodeAttribute(value))
	return writeError
}

// CreateArtifact registers a file on disk as a deployment artifact.
func (messageWriter ServiceMessageWriter) CreateArtifact(path string, name string, length int64) error {
	_, writeError := fmt.Fprintf(messageWriter.writer, createArtifactMessageTemplateConstant, encodeAttribute(path), encodeAttribute(name), encodeAttribute(strconv.FormatInt(length, 10)))
	return writeError
}

func encodeAttribute(value string) string {
	return base64.StdEncoding.EncodeToString([]byte(value))
}
