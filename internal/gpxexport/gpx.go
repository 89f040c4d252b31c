// Package gpxexport renders a route as a GPX 1.1 document, grounded on
// route_gpx.rs's RouteGpx::try_from(Route): waypoints become a single
// track segment, and the document is patched with the xsi:schemaLocation
// attribute the gpx crate (and gpxgo) don't add on their own.
package gpxexport

import (
	"bytes"
	"encoding/xml"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

// Formatter converts a fully-hydrated Route into a GPX 1.1 byte stream.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format serializes route's waypoints, in order, as a single GPX track
// segment. route.SegList must already have distance-from-start and
// elevation attached (RouteUseCase.FindForGpxExport does this).
func (f *Formatter) Format(route *model.Route) ([]byte, error) {
	points := make([]gpx.GPXPoint, 0, route.SegList.Len()+1)
	for _, coord := range route.SegList.GatherWaypoints() {
		point := gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  coord.Latitude().Value(),
				Longitude: coord.Longitude().Value(),
			},
		}
		if elev := coord.Elevation(); elev != nil {
			point.Elevation = *gpx.NewNullableFloat64(float64(elev.Value()))
		}
		points = append(points, point)
	}

	g := &gpx.GPX{
		Version: "1.1",
		Creator: "route-bucket-backend-sub000",
		Name:    route.Info.Name,
		Tracks: []gpx.GPXTrack{
			{
				Name:     route.Info.Name,
				Segments: []gpx.GPXTrackSegment{{Points: points}},
			},
		},
	}

	body, err := g.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, apperr.Wrap(apperr.Domain, "failed to serialize gpx", err)
	}

	return injectNamespaces(body)
}

// gpxNamespaceAttrs are the attributes the gpx crate (and gpxgo) omit from
// the root element, matching route_gpx.rs's post-process of the same
// document on its way out.
var gpxNamespaceAttrs = []xml.Attr{
	{Name: xml.Name{Local: "xmlns"}, Value: "http://www.topografix.com/GPX/1/1"},
	{Name: xml.Name{Local: "xmlns:xsi"}, Value: "http://www.w3.org/2001/XMLSchema-instance"},
	{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: "http://www.topografix.com/GPX/1/1 http://www.topografix.com/GPX/11.xsd"},
}

// injectNamespaces walks body's token stream and adds gpxNamespaceAttrs to
// the root <gpx> start element, re-emitting every other token unchanged.
func injectNamespaces(body []byte) ([]byte, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	var out bytes.Buffer
	encoder := xml.NewEncoder(&out)

	patched := false
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		if start, ok := tok.(xml.StartElement); ok && !patched && start.Name.Local == "gpx" {
			start.Attr = append(append([]xml.Attr{}, start.Attr...), gpxNamespaceAttrs...)
			tok = start
			patched = true
		}
		if err := encoder.EncodeToken(tok); err != nil {
			return nil, apperr.Wrap(apperr.Domain, "failed to rewrite gpx namespaces", err)
		}
	}
	if err := encoder.Flush(); err != nil {
		return nil, apperr.Wrap(apperr.Domain, "failed to flush gpx output", err)
	}
	if !patched {
		return nil, apperr.New(apperr.Domain, "produced gpx didn't contain a <gpx> element")
	}
	return out.Bytes(), nil
}
