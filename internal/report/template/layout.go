// Package template locates report templates on disk and writes uploaded ones. Lookups and
// uploads share one Layout so both sides always agree on file names.
package template

import (
	"errors"
	"fmt"
	"path/filepath"

	"report-workers/internal/common/naming"
)

// ErrUnnamedSlot is returned for a tenant or trade slot whose name slugs to nothing.
var ErrUnnamedSlot = errors.New("template slot has no usable name")

// Destination selects one of the three template slots.
type Destination string

const (
	DestinationTenant  Destination = "tenant"
	DestinationTrade   Destination = "trade"
	DestinationDefault Destination = "default"
)

const (
	companiesDir        = "companies"
	tenantSubdir        = "Project"
	tenantFile          = "report.docx"
	globalDir           = "global"
	tradeFileSuffix     = "_report_template.docx"
	DefaultTemplateFile = "default_report_template.docx"
)

// Layout is the on-disk template tree:
//
//	<root>/companies/<tenant_slug>/Project/report.docx
//	<root>/global/<trade_slug>_report_template.docx
//	<root>/default_report_template.docx
type Layout struct {
	Root string
}

// PathFor returns the file for dest. Tenant and trade names are slugged first; an empty slug
// for a destination that needs one is an error.
func (l Layout) PathFor(dest Destination, tenant, trade string) (string, error) {
	switch dest {
	case DestinationTenant:
		slug := naming.Slug(tenant)
		if slug == "" {
			return "", fmt.Errorf("%w: tenant %q", ErrUnnamedSlot, tenant)
		}
		return filepath.Join(l.Root, companiesDir, slug, tenantSubdir, tenantFile), nil
	case DestinationTrade:
		slug := naming.Slug(trade)
		if slug == "" {
			return "", fmt.Errorf("%w: trade %q", ErrUnnamedSlot, trade)
		}
		return filepath.Join(l.Root, globalDir, slug+tradeFileSuffix), nil
	case DestinationDefault:
		return filepath.Join(l.Root, DefaultTemplateFile), nil
	default:
		return "", fmt.Errorf("unknown template destination %q", dest)
	}
}

// ParseDestination accepts the destination names used in job variables.
func ParseDestination(s string) (Destination, error) {
	switch Destination(s) {
	case DestinationTenant, DestinationTrade, DestinationDefault:
		return Destination(s), nil
	default:
		return "", fmt.Errorf("unknown template destination %q", s)
	}
}
