package component

// Segment is a static capsule edge between (X1,Y1) and (X2,Y2).
type Segment struct {
	X1       float64
	Y1       float64
	X2       float64
	Y2       float64
	Radius   float64
	Friction float64
}

// Box is a static axis-aligned box centered on (X,Y).
type Box struct {
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Friction float64
}

// LevelGeometry is the static collision set of a scenario.
type LevelGeometry struct {
	Segments []Segment
	Boxes    []Box
}

var LevelGeometryComponent = NewComponent[LevelGeometry]()
