package component

// InputScript drives Input from a tengo script. The script sees `tick` and
// sets `move_x`, `move_z` and `jump`.
type InputScript struct {
	Path string
}

var InputScriptComponent = NewComponent[InputScript]()

// InputKey holds the input that applies from Tick until the next key.
type InputKey struct {
	Tick  uint64  `yaml:"tick"`
	MoveX float64 `yaml:"move_x"`
	MoveZ float64 `yaml:"move_z"`
	Jump  bool    `yaml:"jump"`
}

// InputTrack replays keyframed input. Keys must be sorted by Tick.
type InputTrack struct {
	Keys []InputKey
}

var InputTrackComponent = NewComponent[InputTrack]()
