package component

// Input stores per-tick input state for an entity. MoveX and MoveZ are
// planar axes in [-1, 1].
type Input struct {
	MoveX       float64
	MoveZ       float64
	Jump        bool
	JumpPressed bool
}

var InputComponent = NewComponent[Input]()
