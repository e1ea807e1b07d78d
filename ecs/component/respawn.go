package component

// SafeRespawn stores the last grounded-safe position for an entity.
type SafeRespawn struct {
	X           float64
	Y           float64
	Initialized bool
}

var SafeRespawnComponent = NewComponent[SafeRespawn]()

// RespawnRequest marks an entity to be moved back to its safe position by
// RespawnSystem.
type RespawnRequest struct{}

var RespawnRequestComponent = NewComponent[RespawnRequest]()
