package docfill

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

var mediaContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
}

// normalizePackage rewrites a DOCX archive with [Content_Types].xml first, the remaining parts
// sorted by name and zero modification times, so equal documents produce equal bytes. It also
// declares a content type for every media extension the package carries.
func normalizePackage(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reopen package: %w", err)
	}

	parts := make(map[string][]byte, len(zr.File))
	names := make([]string, 0, len(zr.File))
	mediaExts := map[string]bool{}
	for _, f := range zr.File {
		b, err := readPart(f)
		if err != nil {
			return nil, err
		}
		if _, dup := parts[f.Name]; !dup {
			names = append(names, f.Name)
		}
		parts[f.Name] = b
		if strings.HasPrefix(f.Name, "word/media/") {
			if ext := strings.TrimPrefix(strings.ToLower(path.Ext(f.Name)), "."); ext != "" {
				mediaExts[ext] = true
			}
		}
	}

	if ct, ok := parts[contentTypesPart]; ok {
		parts[contentTypesPart] = declareMediaTypes(ct, mediaExts)
	}

	sort.Slice(names, func(i, j int) bool {
		if names[i] == contentTypesPart || names[j] == contentTypesPart {
			return names[i] == contentTypesPart
		}
		return names[i] < names[j]
	})

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(parts[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", f.Name, err)
	}
	return b, nil
}

func declareMediaTypes(ct []byte, exts map[string]bool) []byte {
	s := string(ct)
	lower := strings.ToLower(s)
	missing := make([]string, 0, len(exts))
	for ext := range exts {
		if _, known := mediaContentTypes[ext]; !known {
			continue
		}
		if strings.Contains(lower, `extension="`+ext+`"`) {
			continue
		}
		missing = append(missing, ext)
	}
	if len(missing) == 0 {
		return ct
	}
	sort.Strings(missing)

	idx := strings.LastIndex(s, "</Types>")
	if idx < 0 {
		return ct
	}
	var b strings.Builder
	b.WriteString(s[:idx])
	for _, ext := range missing {
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, ext, mediaContentTypes[ext])
	}
	b.WriteString(s[idx:])
	return []byte(b.String())
}
