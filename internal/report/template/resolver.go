package template

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"report-workers/internal/common/logger"
	"report-workers/internal/common/naming"
)

var ErrTemplateNotFound = errors.New("TEMPLATE_NOT_FOUND")

// Descriptor is a resolved template and the inputs that produced it.
type Descriptor struct {
	Path   string      `json:"path"`
	Tenant string      `json:"tenant,omitempty"`
	Trade  string      `json:"trade,omitempty"`
	Source Destination `json:"source"`
}

// NotFoundError lists every path that was probed. TradePath is empty when the trade had no
// usable name.
type NotFoundError struct {
	Tenant      string
	Trade       string
	TenantPath  string
	TradePath   string
	DefaultPath string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no report template for trade %q", e.Trade)
	if e.TradePath != "" {
		fmt.Fprintf(&b, ": add %s", e.TradePath)
		fmt.Fprintf(&b, " or the system default %s", e.DefaultPath)
	} else {
		fmt.Fprintf(&b, ": add the system default %s", e.DefaultPath)
	}
	if e.TenantPath != "" {
		fmt.Fprintf(&b, " (tenant %q would use %s)", e.Tenant, e.TenantPath)
	}
	return b.String()
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// Resolver picks the template for a tenant/trade pair. It only stats files, so it is safe for
// concurrent use.
type Resolver struct {
	layout Layout
	logger logger.Logger
}

func NewResolver(layout Layout, log logger.Logger) *Resolver {
	return &Resolver{
		layout: layout,
		logger: log.With(map[string]interface{}{"component": "template-resolver"}),
	}
}

func (r *Resolver) Layout() Layout {
	return r.layout
}

// Resolve returns the first existing template among the tenant master, the trade template and
// the system default. tenant may be empty.
func (r *Resolver) Resolve(trade, tenant string) (*Descriptor, error) {
	nf := &NotFoundError{Tenant: tenant, Trade: trade}

	if naming.Slug(tenant) != "" {
		path, _ := r.layout.PathFor(DestinationTenant, tenant, trade)
		nf.TenantPath = path
		if isFile(path) {
			return r.found(path, tenant, trade, DestinationTenant), nil
		}
	}

	if naming.Slug(trade) != "" {
		path, _ := r.layout.PathFor(DestinationTrade, tenant, trade)
		nf.TradePath = path
		if isFile(path) {
			return r.found(path, tenant, trade, DestinationTrade), nil
		}
	}

	path, _ := r.layout.PathFor(DestinationDefault, tenant, trade)
	nf.DefaultPath = path
	if isFile(path) {
		return r.found(path, tenant, trade, DestinationDefault), nil
	}

	r.logger.Warn("no report template found", map[string]interface{}{
		"trade":       trade,
		"tenant":      tenant,
		"tradePath":   nf.TradePath,
		"defaultPath": nf.DefaultPath,
	})
	return nil, nf
}

func (r *Resolver) found(path, tenant, trade string, source Destination) *Descriptor {
	r.logger.Debug("report template resolved", map[string]interface{}{
		"path":   path,
		"tenant": tenant,
		"trade":  trade,
		"source": string(source),
	})
	return &Descriptor{Path: path, Tenant: tenant, Trade: trade, Source: source}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
