package tour

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/models"
)

var (
	ErrEmptyRoute = errors.New("tour has no stops")
	ErrTourActive = errors.New("tour is already running")
)

type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	CompletedTitle       = "Tour complete"
	CompletedDescription = "You have visited every stop. Thank you for touring!"
)

type Config struct {
	PanDuration      time.Duration
	StopDuration     time.Duration
	CompletionDelay  time.Duration
	FrameInterval    time.Duration
	ProgressInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		PanDuration:      8 * time.Second,
		StopDuration:     5 * time.Second,
		CompletionDelay:  5 * time.Second,
		FrameInterval:    16 * time.Millisecond,
		ProgressInterval: 50 * time.Millisecond,
	}
}

const minPanDuration = time.Second

// task owns the timers of one stop execution. Only the engine's active task
// may touch the camera or the listener.
type task struct {
	timers map[int]Timer
	seq    int
}

func (t *task) stopAll() {
	for k, tm := range t.timers {
		tm.Stop()
		delete(t.timers, k)
	}
}

// Engine plays a tour plan against a camera. All methods are safe for
// concurrent use.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	clock    Clock
	camera   Camera
	listener Listener
	logger   *zap.Logger

	plan   *Plan
	state  State
	index  int
	active *task
	origin View

	completion Timer
}

func NewEngine(cfg Config, clock Clock, camera Camera, listener Listener, logger *zap.Logger) *Engine {
	def := DefaultConfig()
	if cfg.PanDuration <= 0 {
		cfg.PanDuration = def.PanDuration
	}
	if cfg.StopDuration <= 0 {
		cfg.StopDuration = def.StopDuration
	}
	if cfg.CompletionDelay <= 0 {
		cfg.CompletionDelay = def.CompletionDelay
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = def.FrameInterval
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = def.ProgressInterval
	}
	if clock == nil {
		clock = RealClock()
	}
	if listener == nil {
		listener = NopListener{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, clock: clock, camera: camera, listener: listener, logger: logger}
}

// Load replaces the plan. Only allowed while no tour is running.
func (e *Engine) Load(plan *Plan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePlaying || e.state == StatePaused {
		return ErrTourActive
	}
	e.plan = plan
	return nil
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Index returns the current stop index.
func (e *Engine) Index() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// Pending reports how many timers the engine currently owns.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	if e.active != nil {
		n += len(e.active.timers)
	}
	if e.completion != nil {
		n++
	}
	return n
}

// Start begins the tour at the first stop.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StatePlaying, StatePaused:
		return ErrTourActive
	}
	if e.plan == nil || len(e.plan.Stops) == 0 {
		return ErrEmptyRoute
	}
	e.cancelCompletion()
	e.index = 0
	e.setState(StatePlaying)
	e.logger.Info("tour started", zap.String("plan", e.plan.Name), zap.Int("stops", len(e.plan.Stops)))
	e.execute(true)
	return nil
}

func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePlaying {
		return
	}
	e.cancelTask()
	e.setState(StatePaused)
}

// Resume replays the current stop from its beginning.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return
	}
	e.interrupt()
	e.setState(StatePlaying)
	e.execute(false)
}

func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running() {
		return
	}
	e.interrupt()
	e.index++
	e.setState(StatePlaying)
	if e.index >= len(e.plan.Stops) {
		e.complete()
		return
	}
	e.execute(true)
}

func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running() {
		return
	}
	e.interrupt()
	e.index = max(0, e.index-1)
	e.setState(StatePlaying)
	e.execute(true)
}

func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running() {
		return
	}
	e.interrupt()
	e.index = 0
	e.setState(StatePlaying)
	e.execute(true)
}

// Stop returns to idle from any state and leaves no timers behind.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return
	}
	e.interrupt()
	e.cancelCompletion()
	e.index = 0
	e.setState(StateIdle)
	e.logger.Info("tour stopped")
}

func (e *Engine) running() bool {
	return e.state == StatePlaying || e.state == StatePaused
}

func (e *Engine) setState(s State) {
	e.state = s
	total := 0
	if e.plan != nil {
		total = len(e.plan.Stops)
	}
	e.listener.StateChanged(s, e.index, total)
}

func (e *Engine) interrupt() {
	e.cancelTask()
	e.listener.ClearHighlight()
	e.listener.ClearInfo()
}

func (e *Engine) cancelTask() {
	if e.active != nil {
		e.active.stopAll()
		e.active = nil
	}
}

func (e *Engine) cancelCompletion() {
	if e.completion != nil {
		e.completion.Stop()
		e.completion = nil
	}
}

// after schedules fn on behalf of t. fn runs under the engine lock and only
// if t is still the active task.
func (e *Engine) after(t *task, d time.Duration, fn func()) {
	key := t.seq
	t.seq++
	var tm Timer
	tm = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.active != t {
			return
		}
		if cur, ok := t.timers[key]; !ok || cur != tm {
			return
		}
		delete(t.timers, key)
		fn()
	})
	t.timers[key] = tm
}

func (e *Engine) complete() {
	e.cancelTask()
	e.setState(StateCompleted)
	e.listener.ShowInfo(CompletedTitle, CompletedDescription)
	e.logger.Info("tour completed")

	var tm Timer
	tm = e.clock.AfterFunc(e.cfg.CompletionDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.completion != tm || e.state != StateCompleted {
			return
		}
		e.completion = nil
		e.listener.ClearInfo()
		e.index = 0
		e.setState(StateIdle)
	})
	e.completion = tm
}

func (e *Engine) advance() {
	e.index++
	if e.index >= len(e.plan.Stops) {
		e.complete()
		return
	}
	e.execute(true)
}

// execute runs the current stop as a new task. fresh is false when resuming,
// in which case the camera returns to where the stop originally began.
func (e *Engine) execute(fresh bool) {
	e.cancelTask()
	t := &task{timers: make(map[int]Timer)}
	e.active = t

	stop := e.plan.Stops[e.index]
	switch stop.Type {
	case models.StopRoom:
		e.runRoomStop(t, stop, fresh)
	case models.StopHotspot:
		e.runHotspotStop(t, stop, fresh)
	default:
		e.logger.Warn("unknown tour stop type, skipping", zap.String("type", string(stop.Type)), zap.Int("index", e.index))
		e.advance()
	}
}

func (e *Engine) room(id int64) *models.Room {
	if e.plan.Rooms == nil {
		return nil
	}
	return e.plan.Rooms[id]
}

func (e *Engine) enterRoom(id int64, fresh bool) error {
	if e.camera.CurrentRoom() != id {
		if err := e.camera.SwitchToRoom(id); err != nil {
			return err
		}
	}
	if fresh {
		e.origin = currentView(e.camera)
	} else {
		applyView(e.camera, e.origin)
	}
	return nil
}

func (e *Engine) runRoomStop(t *task, stop models.TourStop, fresh bool) {
	room := e.room(stop.RoomID)
	if room == nil {
		e.logger.Warn("tour stop references missing room, skipping", zap.Int64("room_id", stop.RoomID))
		e.advance()
		return
	}
	if err := e.enterRoom(room.ID, fresh); err != nil {
		e.logger.Warn("failed to switch room, skipping", zap.Int64("room_id", room.ID), zap.Error(err))
		e.advance()
		return
	}

	title := stop.Title
	if title == "" {
		title = room.Name
	}
	description := stop.Description
	if description == "" {
		description = fmt.Sprintf("Stop %d/%d", e.index+1, len(e.plan.Stops))
	}
	e.listener.ShowInfo(title, description)

	from := e.origin
	to := from
	to.Yaw += 2 * math.Pi
	e.pan(t, from, to, func() {
		e.dwell(t, stop, func() {
			e.listener.ClearInfo()
			e.advance()
		})
	})
}

func (e *Engine) runHotspotStop(t *task, stop models.TourStop, fresh bool) {
	room := e.room(stop.RoomID)
	idx, ok := 0, false
	if room != nil {
		idx, ok = resolveHotspot(room, stop)
	}
	if !ok {
		e.logger.Warn("tour stop references missing hotspot, skipping",
			zap.Int64("room_id", stop.RoomID), zap.Int("hotspot_index", stop.HotspotIndex))
		e.advance()
		return
	}
	if err := e.enterRoom(room.ID, fresh); err != nil {
		e.logger.Warn("failed to switch room, skipping", zap.Int64("room_id", room.ID), zap.Error(err))
		e.advance()
		return
	}

	hotspot := room.Hotspots[idx]
	to := View{Yaw: degToRad(hotspot.Yaw), Pitch: degToRad(-hotspot.Pitch), Fov: e.origin.Fov}
	e.pan(t, e.origin, to, func() {
		e.listener.Highlight(room.ID, hotspot.ID, idx)

		title := stop.Title
		if title == "" {
			target := "another room"
			if r := e.room(hotspot.Target); r != nil {
				target = r.Name
			}
			title = "Go to: " + target
		}
		description := stop.Description
		if description == "" {
			description = fmt.Sprintf("Hotspot %d/%d", e.index+1, len(e.plan.Stops))
		}
		e.listener.ShowInfo(title, description)

		e.dwell(t, stop, func() {
			e.listener.ClearHighlight()
			e.listener.ClearInfo()
			e.advance()
		})
	})
}

func (e *Engine) panDuration() time.Duration {
	d := e.cfg.PanDuration
	if e.plan.PanDuration >= minPanDuration {
		d = e.plan.PanDuration
	}
	return max(minPanDuration, d)
}

// pan animates the camera from one view to another with one frame timer
// outstanding at a time, then calls done.
func (e *Engine) pan(t *task, from, to View, done func()) {
	duration := e.panDuration()
	start := e.clock.Now()

	var frame func()
	frame = func() {
		p := math.Min(float64(e.clock.Now().Sub(start))/float64(duration), 1)
		k := Ease(p)
		e.camera.SetYaw(lerp(from.Yaw, to.Yaw, k))
		e.camera.SetPitch(lerp(from.Pitch, to.Pitch, k))
		if p >= 1 {
			done()
			return
		}
		e.after(t, e.cfg.FrameInterval, frame)
	}
	e.after(t, e.cfg.FrameInterval, frame)
}

// dwell holds on the current stop, reporting progress every tick.
func (e *Engine) dwell(t *task, stop models.TourStop, done func()) {
	duration := e.cfg.StopDuration
	if stop.Duration > 0 {
		duration = time.Duration(stop.Duration) * time.Millisecond
	}
	start := e.clock.Now()
	e.listener.Progress(0)

	var tick func()
	tick = func() {
		elapsed := e.clock.Now().Sub(start)
		if elapsed >= duration {
			e.listener.Progress(1)
			done()
			return
		}
		e.listener.Progress(float64(elapsed) / float64(duration))
		e.after(t, min(e.cfg.ProgressInterval, duration-elapsed), tick)
	}
	e.after(t, min(e.cfg.ProgressInterval, duration), tick)
}
