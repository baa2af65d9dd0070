// Package docfill fills DOCX report templates: it substitutes placeholder tokens, expands the
// findings table, embeds attachment images and serializes the result.
package docfill

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fumiama/go-docx"
)

var ErrTemplateLoad = errors.New("TEMPLATE_LOAD_FAILED")

const (
	documentPart     = "word/document.xml"
	contentTypesPart = "[Content_Types].xml"

	// ContentType is the MIME type of a finished report.
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// LoadError wraps a template that exists but cannot be read as a DOCX package.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load template: %v", e.Err)
	}
	return fmt.Sprintf("load template %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrTemplateLoad }

// Document is an open template. The go-docx package streams untouched parts from the source
// archive at write time, so the source must stay open until Bytes has been called.
type Document struct {
	doc    *docx.Docx
	closer io.Closer
	path   string
}

// Open loads the template at path. The caller must Close the returned Document.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &LoadError{Path: path, Err: err}
	}
	doc, err := parse(f, info.Size())
	if err != nil {
		f.Close()
		return nil, &LoadError{Path: path, Err: err}
	}
	return &Document{doc: doc, closer: f, path: path}, nil
}

// Parse loads a template held in memory.
func Parse(data []byte) (*Document, error) {
	doc, err := parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return &Document{doc: doc}, nil
}

// Validate reports whether data is a DOCX package the engine can load.
func Validate(data []byte) error {
	_, err := parse(bytes.NewReader(data), int64(len(data)))
	return err
}

func parse(r io.ReaderAt, size int64) (doc *docx.Docx, err error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("not a zip archive: %w", err)
	}
	var hasDocument, hasContentTypes bool
	for _, f := range zr.File {
		switch f.Name {
		case documentPart:
			hasDocument = true
		case contentTypesPart:
			hasContentTypes = true
		}
	}
	if !hasDocument {
		return nil, fmt.Errorf("archive has no %s", documentPart)
	}
	if !hasContentTypes {
		return nil, fmt.Errorf("archive has no %s", contentTypesPart)
	}

	// go-docx panics on some malformed parts instead of returning an error.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("malformed document: %v", rec)
		}
	}()
	return docx.Parse(r, size)
}

func (d *Document) Close() error {
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

func (d *Document) Path() string { return d.path }

// Docx exposes the underlying document model.
func (d *Document) Docx() *docx.Docx { return d.doc }

// Paragraphs returns every body paragraph followed, in document order, by the paragraphs of
// table cells including nested tables.
func (d *Document) Paragraphs() []*docx.Paragraph {
	var out []*docx.Paragraph
	for _, item := range d.doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			out = append(out, v)
		case *docx.Table:
			out = appendTableParagraphs(out, v)
		}
	}
	return out
}

func appendTableParagraphs(out []*docx.Paragraph, t *docx.Table) []*docx.Paragraph {
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			out = append(out, cell.Paragraphs...)
			for _, nested := range cell.Tables {
				out = appendTableParagraphs(out, nested)
			}
		}
	}
	return out
}

// Tables returns the top-level tables in document order.
func (d *Document) Tables() []*docx.Table {
	var out []*docx.Table
	for _, item := range d.doc.Document.Body.Items {
		if t, ok := item.(*docx.Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// appendParagraph adds a body paragraph. When the body ends with section properties the new
// paragraph is placed before them.
func (d *Document) appendParagraph() *docx.Paragraph {
	p := d.doc.AddParagraph()
	items := d.doc.Document.Body.Items
	n := len(items)
	if n >= 2 {
		if _, ok := items[n-2].(*docx.SectPr); ok {
			items[n-2], items[n-1] = items[n-1], items[n-2]
		}
	}
	return p
}

// removeParagraphs drops the given body paragraphs.
func (d *Document) removeParagraphs(ps ...*docx.Paragraph) {
	drop := make(map[*docx.Paragraph]bool, len(ps))
	for _, p := range ps {
		drop[p] = true
	}
	items := d.doc.Document.Body.Items[:0]
	for _, it := range d.doc.Document.Body.Items {
		if p, ok := it.(*docx.Paragraph); ok && drop[p] {
			continue
		}
		items = append(items, it)
	}
	d.doc.Document.Body.Items = items
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return normalizePackage(buf.Bytes())
}
