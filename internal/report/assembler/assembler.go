// Package assembler builds a finished inspection report from a record and the template that
// applies to its tenant and trade.
package assembler

import (
	"context"
	"errors"
	"time"

	"report-workers/internal/common/logger"
	"report-workers/internal/common/naming"
	"report-workers/internal/common/observability"
	"report-workers/internal/report/docfill"
	"report-workers/internal/report/record"
	"report-workers/internal/report/template"
)

const (
	DefaultTrade    = "welding"
	defaultBaseName = "inspection_report"
)

// Resolver is the part of template.Resolver the assembler needs.
type Resolver interface {
	Resolve(trade, tenant string) (*template.Descriptor, error)
}

type Options struct {
	// Catalog defaults to record.DefaultCatalog().
	Catalog *record.Catalog
	// Matcher defaults to docfill.DefaultMatcher().
	Matcher docfill.TableMatcher
	// ImageWidthEMU defaults to docfill.DefaultImageWidthEMU.
	ImageWidthEMU int64
	Metrics       *observability.Observability
}

type Request struct {
	Trade  string
	Tenant string
	Record *record.Record
}

type Result struct {
	Document          []byte
	Filename          string
	ContentType       string
	Template          template.Descriptor
	FindingsRows      int
	FindingsTable     bool
	ImagesEmbedded    int
	ImagesSkipped     int
	ImageErrors       []error
	ChangedParagraphs int
	Deficiencies      int
	// Record is the augmented record the document was filled from.
	Record *record.Record
}

type Assembler struct {
	resolver Resolver
	opts     Options
	logger   logger.Logger
}

func New(resolver Resolver, opts Options, log logger.Logger) *Assembler {
	if opts.Catalog == nil {
		opts.Catalog = record.DefaultCatalog()
	}
	if opts.Matcher == nil {
		opts.Matcher = docfill.DefaultMatcher()
	}
	if opts.ImageWidthEMU <= 0 {
		opts.ImageWidthEMU = docfill.DefaultImageWidthEMU
	}
	return &Assembler{
		resolver: resolver,
		opts:     opts,
		logger:   log.With(map[string]interface{}{"component": "report-assembler"}),
	}
}

// Assemble resolves and fills the template for req. Only template resolution and loading can
// fail; problems further down the pipeline degrade the affected field and are reported in the
// Result.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	rec := req.Record
	if rec == nil {
		rec = &record.Record{}
	}
	trade := EffectiveTrade(req.Trade, rec)

	desc, err := a.resolver.Resolve(trade, req.Tenant)
	if err != nil {
		a.opts.Metrics.RecordFailed(ctx, failureReason(err))
		return nil, err
	}

	doc, err := docfill.Open(desc.Path)
	if err != nil {
		a.opts.Metrics.RecordFailed(ctx, failureReason(err))
		a.logger.Error("template could not be loaded", map[string]interface{}{
			"path":  desc.Path,
			"error": err,
		})
		return nil, err
	}
	defer doc.Close()

	augmented := record.Augment(rec)
	if augmented.Trade == "" {
		augmented.Trade = trade
	}

	if over := a.opts.Catalog.Overflow(augmented); len(over) > 0 {
		a.logger.Debug("record entries beyond placeholder capacity were dropped", map[string]interface{}{
			"overflow": over,
		})
	}

	changed := docfill.Substitute(doc, a.opts.Catalog.Replacements(augmented))
	rows, found := docfill.ExpandFindings(doc, augmented.Findings, a.opts.Matcher)
	if !found && len(augmented.Findings) > 0 {
		a.logger.Debug("no findings table in template", map[string]interface{}{
			"path":     desc.Path,
			"findings": len(augmented.Findings),
		})
	}

	embedded, imgErrs := docfill.EmbedImages(doc, augmented.AttachmentImages, a.opts.ImageWidthEMU)
	for _, e := range imgErrs {
		a.logger.Warn("attachment image skipped", map[string]interface{}{"error": e})
	}
	a.opts.Metrics.RecordImagesSkipped(ctx, len(imgErrs))

	out, err := doc.Bytes()
	if err != nil {
		a.opts.Metrics.RecordFailed(ctx, "serialize")
		return nil, err
	}

	res := &Result{
		Document:          out,
		Filename:          Filename(augmented.ProjectName, trade),
		ContentType:       docfill.ContentType,
		Template:          *desc,
		FindingsRows:      rows,
		FindingsTable:     found,
		ImagesEmbedded:    embedded,
		ImagesSkipped:     len(imgErrs),
		ImageErrors:       imgErrs,
		ChangedParagraphs: changed,
		Deficiencies:      len(augmented.Deficiencies),
		Record:            augmented,
	}

	elapsed := time.Since(start)
	a.opts.Metrics.RecordAssembled(ctx, string(desc.Source), elapsed)
	a.logger.Info("report assembled", map[string]interface{}{
		"filename":          res.Filename,
		"template":          desc.Path,
		"source":            string(desc.Source),
		"findingsRows":      rows,
		"imagesEmbedded":    embedded,
		"imagesSkipped":     len(imgErrs),
		"changedParagraphs": changed,
		"sizeBytes":         len(out),
		"durationMs":        elapsed.Milliseconds(),
	})
	return res, nil
}

// EffectiveTrade picks the request trade, then the record's, then DefaultTrade.
func EffectiveTrade(requested string, rec *record.Record) string {
	if naming.Slug(requested) != "" {
		return requested
	}
	if rec != nil && naming.Slug(rec.Trade) != "" {
		return rec.Trade
	}
	return DefaultTrade
}

// Filename is "<project>_<trade>.docx" with both parts slugged. An unnamed project becomes
// "inspection_report"; an unusable trade is left out.
func Filename(project, trade string) string {
	name := naming.SlugOr(project, defaultBaseName)
	if t := naming.Slug(trade); t != "" {
		name += "_" + t
	}
	return name + ".docx"
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, template.ErrTemplateNotFound):
		return "TEMPLATE_NOT_FOUND"
	case errors.Is(err, docfill.ErrTemplateLoad):
		return "TEMPLATE_LOAD_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}
