// Package dataset provides the "Data Set" node kind: it loads a table from
// the URL in its settings and emits it downstream.
package dataset

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/table"
)

// Kind is the registered kind name.
const Kind = "Data Set"

// DefaultTimeout bounds one load when no client is configured.
const DefaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client fetches remote tables. Nil selects a pooled client with
	// DefaultTimeout.
	Client *http.Client
}

// NewClient returns the pooled HTTP client used for loads.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	client := m.Client
	if client == nil {
		client = NewClient(DefaultTimeout)
	}
	r.RegisterKind(Kind, func(h node.Host) (node.Runtime, error) {
		ctx, cancel := context.WithCancel(context.Background())
		return &runtime{host: h, client: client, ctx: ctx, cancel: cancel}, nil
	})
}

type runtime struct {
	host   node.Host
	client *http.Client

	url string
	// gen identifies the latest load; results of older loads are dropped.
	gen uint64

	ctx    context.Context
	cancel context.CancelFunc
}

func (r *runtime) Start(ctx context.Context) {
	r.update(ctx)
}

func (r *runtime) OnSettingsChanged(ctx context.Context, delta map[string]any) {
	v, ok := delta["url"]
	if !ok {
		return
	}
	url, _ := v.(string)
	r.url = url
	r.update(ctx)
}

// OnInput is a no-op: data sets have no inputs.
func (r *runtime) OnInput(context.Context, node.Value) {}

func (r *runtime) Close() {
	r.cancel()
}

func (r *runtime) update(ctx context.Context) {
	r.gen++
	node.ClearMessages(ctx, r.host)
	if r.url == "" {
		node.Info(ctx, r.host, "No data", "Enter an URL to load data")
		r.host.Emit(ctx, nil)
		return
	}

	gen, url := r.gen, r.url
	logger := ctxlog.FromContext(ctx).With("node", r.host.ID(), "url", url)
	go func() {
		tbl, err := table.Load(r.ctx, r.client, url)
		if errors.Is(err, context.Canceled) {
			return
		}
		r.host.Submit(func(ctx context.Context) {
			if gen != r.gen {
				logger.Debug("Discarding stale load.")
				return
			}
			if err != nil {
				logger.Warn("Failed to load data.", "error", err)
				node.Error(ctx, r.host, "Error while loading data", err.Error())
				r.host.Emit(ctx, nil)
				return
			}
			logger.Info("Data loaded.", "rows", tbl.Rows, "columns", len(tbl.Columns))
			r.host.Emit(ctx, tbl)
		})
	}()
}
