package hcl

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/zclconf/go-cty/cty"
)

// Export renders a snapshot as a seed block that Load reads back.
func Export(sessionID string, snap *sessionstore.Snapshot) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	seed := f.Body().AppendNewBlock("seed", []string{sessionID}).Body()

	for i, n := range snap.Nodes {
		if i > 0 {
			seed.AppendNewline()
		}
		body := seed.AppendNewBlock("node", []string{n.ID}).Body()
		body.SetAttributeValue("kind", cty.StringVal(n.Kind))
		body.SetAttributeValue("x", cty.NumberFloatVal(n.X))
		body.SetAttributeValue("y", cty.NumberFloatVal(n.Y))

		settings := snap.Settings[n.ID]
		if len(settings) == 0 {
			continue
		}
		val, err := FromGo(settings)
		if err != nil {
			return nil, err
		}
		body.SetAttributeValue("settings", val)
	}

	for _, e := range snap.Edges {
		seed.AppendNewline()
		body := seed.AppendNewBlock("connection", nil).Body()
		body.SetAttributeValue("source", cty.StringVal(e.Source))
		body.SetAttributeValue("target", cty.StringVal(e.Target))
	}
	return f.Bytes(), nil
}
