package component

// LevelBounds stores the kill plane of the current level. Dynamic bodies
// whose center drops below MinY are respawned.
type LevelBounds struct {
	MinY float64
}

var LevelBoundsComponent = NewComponent[LevelBounds]()
