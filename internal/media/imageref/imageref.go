// Package imageref resolves the image references users supply (file paths,
// URLs, data URIs or bare base64) into URLs remote model APIs accept.
package imageref

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

var mediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Resolve converts an image reference into a URL. Remote URLs pass through,
// data URIs with an unsupported media type are relabelled as JPEG, local
// files are inlined as data URIs and anything else must be raw base64, which
// is treated as JPEG.
func Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", errors.New("empty image reference")
	case IsRemote(ref):
		return ref, nil
	case strings.HasPrefix(ref, "data:"):
		header, data, ok := strings.Cut(ref, ";base64,")
		if !ok || data == "" {
			return "", errors.New("malformed data URI")
		}
		mediaType := strings.TrimPrefix(header, "data:")
		if !mediaTypes[mediaType] {
			mediaType = "image/jpeg"
		}
		return "data:" + mediaType + ";base64," + data, nil
	}
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return "", fmt.Errorf("read image %s: %w", ref, err)
		}
		return "data:" + MediaType(ref) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}
	if _, err := base64.StdEncoding.DecodeString(ref); err != nil {
		return "", fmt.Errorf("image %q is not a file, URL or base64 data", truncate(ref))
	}
	return "data:image/jpeg;base64," + ref, nil
}

// IsRemote reports whether ref is an http(s) URL.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// MediaType guesses the image media type from a file name, defaulting to JPEG.
func MediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".jpg" {
		return "image/jpeg"
	}
	if mt := mime.TypeByExtension(ext); mediaTypes[mt] {
		return mt
	}
	return "image/jpeg"
}

func truncate(ref string) string {
	if len(ref) > 24 {
		return ref[:24] + "..."
	}
	return ref
}
