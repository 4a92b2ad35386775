package worldmap

import (
	"fmt"
	"html/template"
	"io"
)

var svgTmpl = template.Must(template.New("map").Funcs(template.FuncMap{
	"num": func(f float64) string { return fmt.Sprintf("%.2f", f) },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 {{num .Canvas.Width}} {{num .Canvas.Height}}">
<rect x="0" y="0" width="{{num .Canvas.Width}}" height="{{num .Canvas.Height}}" fill="#e2e8f0"/>
{{- range .Markers}}
<g class="marker" data-country="{{.Country}}">
<title>{{.Name}}: {{.Count}} site(s){{range .Sites}}
{{.Name}} ({{.Status}}){{end}}</title>
<circle cx="{{num .X}}" cy="{{num .Y}}" r="{{num .R}}" fill="{{.Color}}" stroke="white" stroke-width="2" data-site="{{.Primary.ID}}"/>
<text x="{{num .X}}" y="{{num .LabelY}}" text-anchor="middle" font-size="10" font-weight="600" fill="white" pointer-events="none">{{.Count}}</text>
</g>
{{- end}}
</svg>
`))

// RenderSVG writes m as a standalone SVG document. Each marker carries the
// id of its primary site in data-site.
func RenderSVG(w io.Writer, m Map) error {
	return svgTmpl.Execute(w, m)
}
