package component

import "github.com/milk9111/surfacemotor/motor"

// Motor attaches a locomotion controller to a dynamic physics body.
type Motor struct {
	Controller *motor.Controller
	// Prefab is the motor config file the controller was built from; hot
	// reload matches on it.
	Prefab string
}

var MotorComponent = NewComponent[Motor]()
