package system

import (
	"fmt"
	"sort"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/surfacemotor/ecs"
	"github.com/milk9111/surfacemotor/ecs/component"
	"github.com/milk9111/surfacemotor/prefabs"
	"github.com/rs/zerolog"
)

// InputSystem fills Input from a keyframe track or a tengo script each tick.
// Entities with neither keep whatever Input was set externally.
type InputSystem struct {
	scripts map[string]*inputScript
	log     zerolog.Logger
}

type inputScript struct {
	compiled *tengo.Compiled
	err      error
}

func NewInputSystem(log zerolog.Logger) *InputSystem {
	return &InputSystem{scripts: make(map[string]*inputScript), log: log}
}

func (i *InputSystem) Update(w *ecs.World) {
	if i == nil || w == nil {
		return
	}
	tick := w.Tick()

	ecs.ForEach(w, component.InputComponent.Kind(), func(e ecs.Entity, input *component.Input) {
		var key component.InputKey
		switch {
		case ecs.Has(w, e, component.InputTrackComponent.Kind()):
			track, _ := ecs.Get(w, e, component.InputTrackComponent.Kind())
			key = SampleTrack(track.Keys, tick)
		case ecs.Has(w, e, component.InputScriptComponent.Kind()):
			script, _ := ecs.Get(w, e, component.InputScriptComponent.Kind())
			k, err := i.runScript(script.Path, tick)
			if err != nil {
				i.log.Error().Err(err).Stringer("entity", e).Uint64("tick", tick).Msg("input: script")
				return
			}
			key = k
		default:
			return
		}

		input.MoveX = key.MoveX
		input.MoveZ = key.MoveZ
		input.JumpPressed = key.Jump && !input.Jump
		input.Jump = key.Jump
	})
}

// Invalidate drops a cached script so the next tick recompiles it.
func (i *InputSystem) Invalidate(path string) {
	if i == nil {
		return
	}
	delete(i.scripts, path)
}

// SampleTrack returns the last key at or before tick. Before the first key
// the input is neutral.
func SampleTrack(keys []component.InputKey, tick uint64) component.InputKey {
	idx := sort.Search(len(keys), func(n int) bool { return keys[n].Tick > tick })
	if idx == 0 {
		return component.InputKey{Tick: tick}
	}
	return keys[idx-1]
}

func (i *InputSystem) runScript(path string, tick uint64) (component.InputKey, error) {
	rt, ok := i.scripts[path]
	if !ok {
		rt = &inputScript{}
		rt.compiled, rt.err = compileInputScript(path)
		i.scripts[path] = rt
	}
	if rt.err != nil {
		return component.InputKey{}, rt.err
	}

	// Outputs start neutral every tick.
	for name, value := range map[string]any{"tick": int64(tick), "move_x": 0.0, "move_z": 0.0, "jump": false} {
		if err := rt.compiled.Set(name, value); err != nil {
			return component.InputKey{}, err
		}
	}
	if err := rt.compiled.Run(); err != nil {
		return component.InputKey{}, fmt.Errorf("input: run %s: %w", path, err)
	}
	return component.InputKey{
		Tick:  tick,
		MoveX: rt.compiled.Get("move_x").Float(),
		MoveZ: rt.compiled.Get("move_z").Float(),
		Jump:  rt.compiled.Get("jump").Bool(),
	}, nil
}

// compileInputScript prepares a script that reads `tick` and assigns the
// predeclared `move_x`, `move_z` and `jump` globals.
func compileInputScript(path string) (*tengo.Compiled, error) {
	src, err := prefabs.LoadScript(path)
	if err != nil {
		return nil, err
	}

	script := tengo.NewScript(src)
	_ = script.Add("tick", 0)
	_ = script.Add("move_x", 0.0)
	_ = script.Add("move_z", 0.0)
	_ = script.Add("jump", false)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("input: compile %s: %w", path, err)
	}
	return compiled, nil
}
