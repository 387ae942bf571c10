package geo

import (
	"rescue-coordination/internal/model"

	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
)

var statusColors = map[model.Status]string{
	model.StatusPending:    "#EAB308",
	model.StatusAssigned:   "#3B82F6",
	model.StatusInProgress: "#8B5CF6",
	model.StatusCompleted:  "#10B981",
	model.StatusCancelled:  "#EF4444",
}

const unknownColor = "#6B7280"

func StatusColor(s model.Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return unknownColor
}

func (r *Resolver) Marker(report *model.RescueReport) model.MapMarker {
	pos, exact := r.resolve(report)
	return model.MapMarker{
		ReportID: report.ID,
		Position: pos,
		Status:   report.Status,
		Urgent:   report.Urgent,
		Color:    StatusColor(report.Status),
		Location: report.Location,
		Fallback: !exact,
	}
}

func (r *Resolver) Markers(reports []model.RescueReport) []model.MapMarker {
	out := make([]model.MapMarker, 0, len(reports))
	for i := range reports {
		out = append(out, r.Marker(&reports[i]))
	}
	return out
}

// FeatureCollection renders markers as GeoJSON points. GeoJSON orders
// coordinates longitude first.
func FeatureCollection(markers []model.MapMarker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewPointFeature([]float64{m.Position.Lng, m.Position.Lat})
		f.ID = m.ReportID
		f.SetProperty("status", string(m.Status))
		f.SetProperty("urgent", m.Urgent)
		f.SetProperty("color", m.Color)
		f.SetProperty("location", m.Location)
		f.SetProperty("fallback", m.Fallback)
		fc.AddFeature(f)
	}
	return fc
}

type Viewport struct {
	Center model.MapPosition `json:"center"`
	// SouthWest and NorthEast are nil when nothing is on the map.
	SouthWest *model.MapPosition `json:"southWest,omitempty"`
	NorthEast *model.MapPosition `json:"northEast,omitempty"`
}

// ViewportOf bounds the given positions.
func ViewportOf(positions []model.MapPosition) Viewport {
	rect := s2.EmptyRect()
	for _, p := range positions {
		ll := s2.LatLngFromDegrees(p.Lat, p.Lng)
		if !ll.IsValid() {
			continue
		}
		rect = rect.AddPoint(ll)
	}
	if rect.IsEmpty() {
		return Viewport{Center: DefaultCenter}
	}

	lo, hi, c := rect.Lo(), rect.Hi(), rect.Center()
	return Viewport{
		Center:    model.MapPosition{Lat: c.Lat.Degrees(), Lng: c.Lng.Degrees()},
		SouthWest: &model.MapPosition{Lat: lo.Lat.Degrees(), Lng: lo.Lng.Degrees()},
		NorthEast: &model.MapPosition{Lat: hi.Lat.Degrees(), Lng: hi.Lng.Degrees()},
	}
}

func MarkerPositions(markers []model.MapMarker) []model.MapPosition {
	out := make([]model.MapPosition, 0, len(markers))
	for _, m := range markers {
		out = append(out, m.Position)
	}
	return out
}
