// Package charts renders dashboard graphs as PNG.
package charts

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hamed0406/sitewatch/internal/domain"
)

var ErrNoData = errors.New("no response time data")

const (
	barWidth   = 40
	barSpacing = 20
	maxLabel   = 24
)

var (
	colorUp         = drawing.Color{R: 16, G: 185, B: 129, A: 255}
	colorDown       = drawing.Color{R: 239, G: 68, B: 68, A: 255}
	colorOther      = drawing.Color{R: 107, G: 114, B: 128, A: 255}
	colorPaused     = drawing.Color{R: 203, G: 213, B: 225, A: 255}
	colorBackground = drawing.Color{R: 255, G: 255, B: 255, A: 255}
)

func barColor(s domain.SiteDashboard) drawing.Color {
	if !s.IsActive {
		return colorPaused
	}
	switch s.Status {
	case domain.StatusUp:
		return colorUp
	case domain.StatusDown:
		return colorDown
	}
	return colorOther
}

func label(name string) string {
	r := []rune(name)
	if len(r) <= maxLabel {
		return name
	}
	return string(r[:maxLabel-3]) + "..."
}

// ResponseTimes draws one bar per site with a last response time, in the
// order given. Sites without a measurement are skipped.
func ResponseTimes(w io.Writer, sites []domain.SiteDashboard) error {
	bars := make([]chart.Value, 0, len(sites))
	top := 0.0
	for _, s := range sites {
		if s.LastResponseTime == nil {
			continue
		}
		v := *s.LastResponseTime
		if v > top {
			top = v
		}
		c := barColor(s)
		bars = append(bars, chart.Value{
			Label: label(s.Name),
			Value: v,
			Style: chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1},
		})
	}
	if len(bars) == 0 {
		return ErrNoData
	}
	if top == 0 {
		top = 1
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < 800 {
		width = 800
	}
	graph := chart.BarChart{
		Width:      width,
		Height:     400,
		Title:      "Last response time",
		TitleStyle: chart.Style{FontSize: 14},
		Background: chart.Style{
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 30},
			FillColor: colorBackground,
		},
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis:      chart.Style{FontSize: 9},
		YAxis: chart.YAxis{
			Name:  "ms",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render response time chart: %w", err)
	}
	return nil
}
