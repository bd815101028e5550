// Package export reads and writes workflow and proposal documents as JSON or YAML files.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/validation"
	"github.com/goccy/go-yaml"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

// Format is a document encoding, chosen by file extension.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format for path's extension: .json, .yaml or .yml.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ToJSON normalizes a document to JSON. JSON input is returned unchanged.
func ToJSON(format Format, data []byte) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert yaml: %w", err)
		}

		return converted, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Encode renders v in format. JSON output uses two-space indentation.
func Encode(format Format, v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		converted, err := yaml.JSONToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert to yaml: %w", err)
		}

		return converted, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ReadFile reads path and returns its contents as JSON.
func ReadFile(path string) ([]byte, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ToJSON(format, data)
}

// ReadIntent decodes a proposal document.
func ReadIntent(path string) (*models.VoiceWorkflowIntent, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	var intent models.VoiceWorkflowIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode intent %s: %w", path, err)
	}

	return &intent, nil
}

// ReadWorkflow decodes a workflow document and validates it with v.
func ReadWorkflow(path string, v *validation.Validator) (*models.Workflow, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	w, err := v.Document(data)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow %s: %w", path, err)
	}

	return w, nil
}

// WriteFile encodes v in the format named by path's extension, creating
// parent directories as needed.
func WriteFile(path string, v any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	data, err := Encode(format, v)
	if err != nil {
		return err
	}

	return WriteBytes(path, data)
}

// WriteBytes writes data to path as is, creating parent directories as needed.
func WriteBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
