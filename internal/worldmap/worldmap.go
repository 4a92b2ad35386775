// Package worldmap groups sites by country and lays them out as markers on
// an equirectangular canvas.
package worldmap

import (
	"sort"

	"github.com/hamed0406/sitewatch/internal/domain"
)

type Canvas struct {
	Width  float64
	Height float64
}

var DefaultCanvas = Canvas{Width: 800, Height: 400}

// Bucket is the country-level status. It is coarser than the site status:
// maintenance and unknown sites count as not up.
type Bucket string

const (
	BucketUp      Bucket = "up"
	BucketWarning Bucket = "warning"
	BucketDown    Bucket = "down"
)

func (b Bucket) Color() string {
	switch b {
	case BucketUp:
		return "#10b981"
	case BucketWarning:
		return "#f59e0b"
	case BucketDown:
		return "#ef4444"
	}
	return "#6b7280"
}

const (
	minRadius = 6
	maxRadius = 16
)

// Project maps a coordinate linearly onto c.
func Project(p domain.LatLng, c Canvas) (x, y float64) {
	x = (p.Lng + 180) / 360 * c.Width
	y = (90 - p.Lat) / 180 * c.Height
	return x, y
}

// Radius grows with the number of sites in a country.
func Radius(n int) float64 {
	r := n*2 + 4
	if r > maxRadius {
		r = maxRadius
	}
	if r < minRadius {
		r = minRadius
	}
	return float64(r)
}

// BucketFor classifies a country from its share of "up" sites: all up,
// at least 80% up, or anything less.
func BucketFor(sites []domain.SiteDashboard) Bucket {
	if len(sites) == 0 {
		return BucketDown
	}
	up := 0
	for _, s := range sites {
		if s.Status == domain.StatusUp {
			up++
		}
	}
	// 4 of 5 up is exactly 80%
	switch {
	case up == len(sites):
		return BucketUp
	case up*100 >= len(sites)*80:
		return BucketWarning
	}
	return BucketDown
}

type Dot struct {
	SiteID domain.SiteID     `json:"site_id"`
	Name   string            `json:"name"`
	Status domain.SiteStatus `json:"status"`
}

// Color is the per-site dot in the hover tooltip.
func (d Dot) Color() string {
	switch d.Status {
	case domain.StatusUp:
		return "#4ade80"
	case domain.StatusDown:
		return "#f87171"
	}
	return "#9ca3af"
}

type Marker struct {
	Country string                 `json:"country"`
	Name    string                 `json:"name"`
	X       float64                `json:"x"`
	Y       float64                `json:"y"`
	R       float64                `json:"r"`
	Bucket  Bucket                 `json:"bucket"`
	Color   string                 `json:"color"`
	Sites   []domain.SiteDashboard `json:"-"`
}

func (m Marker) Count() int { return len(m.Sites) }

// LabelY is the baseline of the count label centred in the circle.
func (m Marker) LabelY() float64 { return m.Y + 4 }

// Primary is the site a click on the marker selects: the first one in the
// country's group, whatever its status.
func (m Marker) Primary() domain.SiteDashboard { return m.Sites[0] }

type Tooltip struct {
	Country string `json:"country"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Dots    []Dot  `json:"dots"`
}

func (m Marker) Tooltip() Tooltip {
	t := Tooltip{Country: m.Country, Name: m.Name, Count: len(m.Sites)}
	for _, s := range m.Sites {
		t.Dots = append(t.Dots, Dot{SiteID: s.ID, Name: s.Name, Status: s.Status})
	}
	return t
}

type Map struct {
	Canvas  Canvas   `json:"canvas"`
	Markers []Marker `json:"markers"`
	// Omitted counts sites whose country has no coordinates.
	Omitted int `json:"omitted"`
}

// Build groups sites by country code, keeping input order within a group,
// and drops countries without a coordinate entry.
func Build(sites []domain.SiteDashboard, c Canvas) Map {
	groups := make(map[string][]domain.SiteDashboard)
	for _, s := range sites {
		groups[s.Country] = append(groups[s.Country], s)
	}
	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	m := Map{Canvas: c, Markers: []Marker{}}
	for _, code := range codes {
		group := groups[code]
		p, ok := domain.CountryCoordinates(code)
		if !ok {
			m.Omitted += len(group)
			continue
		}
		x, y := Project(p, c)
		b := BucketFor(group)
		m.Markers = append(m.Markers, Marker{
			Country: code,
			Name:    domain.CountryName(code),
			X:       x,
			Y:       y,
			R:       Radius(len(group)),
			Bucket:  b,
			Color:   b.Color(),
			Sites:   group,
		})
	}
	return m
}
