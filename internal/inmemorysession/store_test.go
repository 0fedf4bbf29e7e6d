package inmemorysession

import (
	"testing"

	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/vk/widgetgrid/internal/sessionstore/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) sessionstore.Store { return New() })
}
