package overpass

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ErrRuntime is returned when Overpass answers 200 but reports a runtime
// error (query timeout, memory exhaustion) in the remark field.
var ErrRuntime = eris.New("overpass: runtime error")

// StatusError is returned when the interpreter answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("overpass: returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("overpass: returned status %d: %s", e.StatusCode, e.Body)
}

// Way is an OSM way with its geometry. X is longitude, Y is latitude.
type Way struct {
	ID       int64
	Tags     map[string]string
	Geometry *geom.LineString
}

// Name returns the way's name tag, if any.
func (w Way) Name() string {
	return w.Tags["name"]
}

// Highway returns the way's highway classification, if any.
func (w Way) Highway() string {
	return w.Tags["highway"]
}

type response struct {
	Elements []element `json:"elements"`
	Remark   string    `json:"remark,omitempty"`
}

type element struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Tags map[string]string `json:"tags,omitempty"`
	// Entries are null for nodes Overpass could not place.
	Geometry []*latLon `json:"geometry,omitempty"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ways converts the decoded elements into Ways. Elements without usable
// geometry are kept with an empty line so callers still see them.
func (r response) ways() []Way {
	out := make([]Way, 0, len(r.Elements))
	for _, el := range r.Elements {
		if el.Type != "" && el.Type != "way" {
			continue
		}
		flat := make([]float64, 0, len(el.Geometry)*2)
		for _, pt := range el.Geometry {
			if pt == nil {
				continue
			}
			flat = append(flat, pt.Lon, pt.Lat)
		}
		out = append(out, Way{
			ID:       el.ID,
			Tags:     el.Tags,
			Geometry: geom.NewLineStringFlat(geom.XY, flat),
		})
	}
	return out
}

func isRuntimeRemark(remark string) bool {
	return strings.Contains(strings.ToLower(remark), "runtime error")
}
