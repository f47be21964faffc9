package tour

import "github.com/google/uuid"

// View is a camera orientation in radians.
type View struct {
	Yaw   float64
	Pitch float64
	Fov   float64
}

// Camera is the viewport the engine drives. Angles are radians. The engine
// never changes the field of view.
type Camera interface {
	Yaw() float64
	Pitch() float64
	Fov() float64
	SetYaw(v float64)
	SetPitch(v float64)
	CurrentRoom() int64
	SwitchToRoom(roomID int64) error
}

// currentView reads the orientation of c.
func currentView(c Camera) View {
	return View{Yaw: c.Yaw(), Pitch: c.Pitch(), Fov: c.Fov()}
}

// applyView points c at v, yaw first.
func applyView(c Camera, v View) {
	c.SetYaw(v.Yaw)
	c.SetPitch(v.Pitch)
}

// Listener receives presentation updates. Callbacks run while the engine
// holds its lock and must not call back into the engine.
type Listener interface {
	StateChanged(s State, index, total int)
	ShowInfo(title, description string)
	ClearInfo()
	Highlight(roomID int64, hotspotID uuid.UUID, index int)
	ClearHighlight()
	Progress(fraction float64)
}

// NopListener ignores every update. Embed it to implement a subset.
type NopListener struct{}

func (NopListener) StateChanged(State, int, int) {}
func (NopListener) ShowInfo(string, string) {}
func (NopListener) ClearInfo() {}
func (NopListener) Highlight(int64, uuid.UUID, int) {}
func (NopListener) ClearHighlight() {}
func (NopListener) Progress(float64) {}
