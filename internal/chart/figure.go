// Package chart turns aggregate views into Plotly figures and word clouds.
// Figures are assembled from go-plotly graph objects; the server only emits
// their JSON and the browser renders it with plotly.js.
package chart

import (
	"encoding/json"
	"fmt"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
)

// Figure is an encoded figure, the {"data", "layout"} document accepted by
// Plotly.react. Views hold figures encoded so they pass through the
// aggregate cache unchanged.
type Figure []byte

func (f Figure) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	return f, nil
}

func (f *Figure) UnmarshalJSON(data []byte) error {
	*f = append((*f)[:0], data...)
	return nil
}

// Encode serializes a graph object figure.
func Encode(fig *grob.Fig) (Figure, error) {
	data, err := json.Marshal(fig)
	if err != nil {
		return nil, fmt.Errorf("failed to encode figure: %w", err)
	}
	return data, nil
}

func title(text string) *grob.LayoutTitle {
	return &grob.LayoutTitle{Text: text, X: 0.5, Font: &grob.LayoutTitleFont{Size: 20}}
}

func xTitle(text string) *grob.LayoutXaxisTitle {
	return &grob.LayoutXaxisTitle{Text: text}
}

func yTitle(text string) *grob.LayoutYaxisTitle {
	return &grob.LayoutYaxisTitle{Text: text}
}
