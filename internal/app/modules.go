package app

import (
	"io"

	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/modules/dataset"
	"github.com/vk/widgetgrid/modules/info"
	"github.com/vk/widgetgrid/modules/print"
	"github.com/vk/widgetgrid/modules/scatterplot"
)

// coreModules is the definitive list of node kinds compiled into the
// widgetgrid binary. Print writes to outW.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&dataset.Module{Client: dataset.NewClient(dataset.DefaultTimeout)},
		&info.Module{},
		&scatterplot.Module{},
		&print.Module{Out: outW},
	}
}
