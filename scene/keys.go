package scene

// Key identifies the keyboard keys the runtime reacts to.
// Hosts translate their native key codes to Key.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyLeftShift
	KeyLeftControl
	KeyLeft
	KeyRight
	KeyEscape
)

// Action is a key transition. Values match GLFW's.
type Action int

const (
	Release Action = iota
	Press
	Repeat
)

func (a Action) String() string {
	switch a {
	case Release:
		return "release"
	case Press:
		return "press"
	case Repeat:
		return "repeat"
	}
	return "unknown"
}

// keyHandler reacts to a key transition with the active modifier bitmask.
type keyHandler func(action Action, mods int)

func (r *Runtime) installKeyHandlers() {
	axis := func(component int, v float32) keyHandler {
		return func(action Action, mods int) {
			if action != Release {
				r.Camera.move[component] = v
			} else {
				r.Camera.move[component] = 0
			}
		}
	}
	rotate := func(rate float32) keyHandler {
		return func(action Action, mods int) {
			if action != Release {
				r.Camera.turn = rate
			} else {
				r.Camera.turn = 0
			}
		}
	}
	vel := r.Camera.Velocity
	r.keyHandlers = map[Key]keyHandler{
		KeyD:           axis(0, vel),
		KeyA:           axis(0, -vel),
		KeyLeftShift:   axis(1, vel),
		KeyLeftControl: axis(1, -vel),
		KeyW:           axis(2, vel),
		KeyS:           axis(2, -vel),
		KeyLeft:        rotate(-turnRate),
		KeyRight:       rotate(turnRate),
		KeyEscape: func(action Action, mods int) {
			if action == Press {
				r.quit = true
			}
		},
	}
}
