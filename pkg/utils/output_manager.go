package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreateSessionOutputDir creates the directory holding a session's exports
func (om *OutputManager) CreateSessionOutputDir(sessionID string) (string, error) {
	sessionDir := filepath.Join(om.BaseOutputDir, filepath.Base(sessionID))

	// Create the directory if it doesn't exist
	err := os.MkdirAll(sessionDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create session output directory: %w", err)
	}

	return sessionDir, nil
}

// GetOutputFilePath generates a full path for an output file
func (om *OutputManager) GetOutputFilePath(sessionID, fileName string) (string, error) {
	sessionDir, err := om.CreateSessionOutputDir(sessionID)
	if err != nil {
		return "", err
	}

	// Clean the filename to remove any path separators
	cleanFileName := filepath.Base(fileName)

	return filepath.Join(sessionDir, cleanFileName), nil
}

// LookupFilePath resolves an existing export without creating directories
func (om *OutputManager) LookupFilePath(sessionID, fileName string) (string, error) {
	path := filepath.Join(om.BaseOutputDir, filepath.Base(sessionID), filepath.Base(fileName))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// GetDownloadURL generates a download URL for a file
func (om *OutputManager) GetDownloadURL(sessionID, fileName string) string {
	cleanFileName := filepath.Base(fileName)
	return fmt.Sprintf("/api/v1/exports/%s/%s", sessionID, cleanFileName)
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return "unknown"
	}
}

// GetContentType maps a file type to the Content-Type served on download
func (om *OutputManager) GetContentType(fileName string) string {
	switch om.GetFileType(fileName) {
	case "csv":
		return "text/csv"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// GetFileSize returns the size of a file in bytes
func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}
