package octopus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	artifactStatErrorTemplateConstant    = "inspect artifact %s: %w"
	artifactCopyErrorTemplateConstant    = "copy artifact %s to %s: %w"
	artifactPublishErrorTemplateConstant = "publish artifact %s: %w"
	artifactDirectoryRequiredConstant    = "artifact directory required"
	artifactDirectoryPermissionsConstant = 0o755
)

// ErrArtifactDirectoryRequired indicates a DirectoryArtifactPublisher was built without a target directory.
var ErrArtifactDirectoryRequired = errors.New(artifactDirectoryRequiredConstant)

// ArtifactPublisher hands a rendered file to whatever collects run artifacts.
type ArtifactPublisher interface {
	Publish(filePath string, displayName string) error
}

// NoopArtifactPublisher ignores artifacts.
type NoopArtifactPublisher struct{}

// Publish does nothing.
func (NoopArtifactPublisher) Publish(string, string) error {
	return nil
}

// ServiceMessagePublisher registers artifacts with the Octopus server through service messages.
type ServiceMessagePublisher struct {
	Messages ServiceMessageWriter
}

// Publish emits a createArtifact message for the absolute path of filePath.
func (publisher ServiceMessagePublisher) Publish(filePath string, displayName string) error {
	absolutePath, absoluteError := filepath.Abs(filePath)
	if absoluteError != nil {
		return fmt.Errorf(artifactPublishErrorTemplateConstant, filePath, absoluteError)
	}
	fileInfo, statError := os.Stat(absolutePath)
	if statError != nil {
		return fmt.Errorf(artifactStatErrorTemplateConstant, absolutePath, statError)
	}
	if messageError := publisher.Messages.CreateArtifact(absolutePath, displayName, fileInfo.Size()); messageError != nil {
		return fmt.Errorf(artifactPublishErrorTemplateConstant, absolutePath, messageError)
	}
	return nil
}

// DirectoryArtifactPublisher copies artifacts into a directory, naming each copy after its
// display name while keeping the source extension.
type DirectoryArtifactPublisher struct {
	Directory string
}

// Publish copies filePath into the configured directory.
func (publisher DirectoryArtifactPublisher) Publish(filePath string, displayName string) error {
	targetDirectory := strings.TrimSpace(publisher.Directory)
	if len(targetDirectory) == 0 {
		return ErrArtifactDirectoryRequired
	}
	if mkdirError := os.MkdirAll(targetDirectory, artifactDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(artifactCopyErrorTemplateConstant, filePath, targetDirectory, mkdirError)
	}

	targetName := artifactFileName(displayName, filePath)
	targetPath := filepath.Join(targetDirectory, targetName)
	if copyError := copyFile(filePath, targetPath); copyError != nil {
		return fmt.Errorf(artifactCopyErrorTemplateConstant, filePath, targetPath, copyError)
	}
	return nil
}

func artifactFileName(displayName string, sourcePath string) string {
	baseName := strings.Join(strings.Fields(displayName), "_")
	if len(baseName) == 0 {
		return filepath.Base(sourcePath)
	}
	return baseName + filepath.Ext(sourcePath)
}

func copyFile(sourcePath string, targetPath string) error {
	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return openError
	}
	defer sourceFile.Close()

	targetFile, createError := os.Create(targetPath)
	if createError != nil {
		return createError
	}
	if _, copyError := io.Copy(targetFile, sourceFile); copyError != nil {
		_ = targetFile.Close()
		return copyError
	}
	return targetFile.Close()
}
