package overpass

import (
	"fmt"
	"strconv"

	"github.com/sells-group/roadprox-cli/pkg/geo"
)

// AroundQuery builds an Overpass QL query selecting ways that carry tag
// within radiusMeters of p and asking for their inline geometry.
func AroundQuery(p geo.Point, radiusMeters float64, tag string) string {
	return fmt.Sprintf("[out:json];\nway(around:%s,%s,%s)[%q];\nout geom;\n",
		formatFloat(radiusMeters),
		formatFloat(p.Lat),
		formatFloat(p.Lon),
		tag,
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
