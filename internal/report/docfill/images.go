package docfill

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/fumiama/imgsz"
)

var ErrImageDecode = errors.New("IMAGE_DECODE_FAILED")

const (
	// DefaultImageWidthEMU is six inches.
	DefaultImageWidthEMU int64 = 5486400

	AttachmentsHeading = "Attachments"
	headingStyle       = "Heading1"
)

// ImageDecodeError reports an attachment that was skipped. Index is 1-based.
type ImageDecodeError struct {
	Index int
	Cause error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("attachment image %d: %v", e.Index, e.Cause)
}

func (e *ImageDecodeError) Unwrap() error { return e.Cause }

func (e *ImageDecodeError) Is(target error) bool { return target == ErrImageDecode }

// EmbedImages appends an attachments section with one captioned picture per decodable image,
// each scaled to widthEMU. Images that fail to decode are skipped and returned as
// *ImageDecodeError values; the remaining images are still embedded.
func EmbedImages(doc *Document, images []string, widthEMU int64) (embedded int, errs []error) {
	if len(images) == 0 {
		return 0, nil
	}
	if widthEMU <= 0 {
		widthEMU = DefaultImageWidthEMU
	}

	doc.appendParagraph().AddPageBreaks()
	doc.appendParagraph().Style(headingStyle).AddText(AttachmentsHeading).Bold()

	for i, encoded := range images {
		index := i + 1
		data, size, err := decodeImage(encoded)
		if err != nil {
			errs = append(errs, &ImageDecodeError{Index: index, Cause: err})
			continue
		}

		caption := doc.appendParagraph()
		caption.AddText("Photo " + strconv.Itoa(index) + ":")
		holder := doc.appendParagraph()
		run, err := addDrawing(holder, data)
		if err != nil {
			doc.removeParagraphs(caption, holder)
			errs = append(errs, &ImageDecodeError{Index: index, Cause: err})
			continue
		}
		scaleDrawing(run, widthEMU, size)
		embedded++
	}
	return embedded, errs
}

var addDrawing = func(p *docx.Paragraph, data []byte) (*docx.Run, error) {
	return p.AddInlineDrawing(data)
}

// scaleDrawing sets the picture in run to widthEMU wide, keeping its aspect ratio.
func scaleDrawing(run *docx.Run, widthEMU int64, size imgsz.Size) {
	if size.Width <= 0 {
		return
	}
	height := widthEMU * int64(size.Height) / int64(size.Width)
	for _, c := range run.Children {
		if d, ok := c.(*docx.Drawing); ok && d.Inline != nil {
			d.Inline.Size(widthEMU, height)
		}
	}
}

// decodeImage returns the raw bytes of a base64 or data-URL image after checking that the
// pixels decode.
func decodeImage(encoded string) ([]byte, imgsz.Size, error) {
	s := strings.TrimSpace(encoded)
	if s == "" {
		return nil, imgsz.Size{}, errors.New("empty image")
	}
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, imgsz.Size{}, errors.New("data URL without payload")
		}
		s = s[comma+1:]
	}

	data, err := decodeBase64(s)
	if err != nil {
		return nil, imgsz.Size{}, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, imgsz.Size{}, fmt.Errorf("decode pixels: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, imgsz.Size{}, errors.New("image has no pixels")
	}

	// The document embeds by header size; make sure it reads the same dimensions.
	size, _, err := imgsz.DecodeSize(bytes.NewReader(data))
	if err != nil {
		return nil, imgsz.Size{}, fmt.Errorf("read image header: %w", err)
	}
	return data, size, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("decode base64: %w", firstErr)
}
