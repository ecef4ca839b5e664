package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"morphcore/pkg/domain"
)

// Format identifies a catalog bundle encoding.
type Format string

// Supported bundle encodings.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ContentType returns the MIME type used when storing a bundle.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "application/yaml"
}

// FormatForKey infers the bundle format from a file name or blob key.
func FormatForKey(key string) (Format, error) {
	switch strings.ToLower(path.Ext(key)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported catalog bundle extension %q", path.Ext(key))
	}
}

// BundleKey returns the conventional blob key for a species bundle.
func BundleKey(slug string, f Format) string {
	return "catalogs/" + slug + "." + string(f)
}

// DecodeBundle reads a species catalog document. The result is not validated;
// Compile or the store rules do that.
func DecodeBundle(r io.Reader, f Format) (domain.Species, error) {
	var s domain.Species
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return domain.Species{}, fmt.Errorf("decode yaml bundle: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return domain.Species{}, fmt.Errorf("decode json bundle: %w", err)
		}
	default:
		return domain.Species{}, fmt.Errorf("unsupported bundle format %q", f)
	}
	return s, nil
}

// EncodeBundle writes a species catalog document.
func EncodeBundle(w io.Writer, s domain.Species, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml bundle: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode json bundle: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported bundle format %q", f)
	}
}
