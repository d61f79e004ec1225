package testutil

import (
	"sync"

	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/domain/molecule"
)

// RecordingRenderer is an in-memory viewer.Renderer. It keeps the scene and
// the highlight set, counts calls, and answers hit tests from a table filled
// with SetPick.
type RecordingRenderer struct {
	mu       sync.Mutex
	objects  []molecule.Renderable
	selected map[molecule.Renderable]bool
	picks    map[viewer.PickEvent]molecule.Renderable
	calls    map[string]int
	frame    int
}

var (
	_ viewer.Renderer    = (*RecordingRenderer)(nil)
	_ viewer.FrameSetter = (*RecordingRenderer)(nil)
)

func NewRecordingRenderer() *RecordingRenderer {
	return &RecordingRenderer{
		selected: make(map[molecule.Renderable]bool),
		picks:    make(map[viewer.PickEvent]molecule.Renderable),
		calls:    make(map[string]int),
	}
}

func (r *RecordingRenderer) count(name string) { r.calls[name]++ }

func (r *RecordingRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("Reset")
	r.objects = nil
	r.selected = make(map[molecule.Renderable]bool)
}

func (r *RecordingRenderer) AddRenderableObject(obj molecule.Renderable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("AddRenderableObject")
	r.objects = append(r.objects, obj)
}

func (r *RecordingRenderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("Render")
}

func (r *RecordingRenderer) Select(obj molecule.Renderable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("Select")
	r.selected[obj] = true
}

func (r *RecordingRenderer) Deselect(obj molecule.Renderable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("Deselect")
	delete(r.selected, obj)
}

func (r *RecordingRenderer) DeselectAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("DeselectAll")
	r.selected = make(map[molecule.Renderable]bool)
}

func (r *RecordingRenderer) GetSelectedObject(ev viewer.PickEvent) (molecule.Renderable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("GetSelectedObject")
	obj, ok := r.picks[ev]
	return obj, ok
}

func (r *RecordingRenderer) SetFrame(frame int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = frame
}

// SetPick makes a hit test at ev return obj.
func (r *RecordingRenderer) SetPick(ev viewer.PickEvent, obj molecule.Renderable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.picks[ev] = obj
}

// Objects returns the scene in the order objects were added.
func (r *RecordingRenderer) Objects() []molecule.Renderable {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]molecule.Renderable, len(r.objects))
	copy(out, r.objects)
	return out
}

func (r *RecordingRenderer) IsSelected(obj molecule.Renderable) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected[obj]
}

// SelectedCount is the number of highlighted objects.
func (r *RecordingRenderer) SelectedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.selected)
}

// Calls returns how many times the named method ran.
func (r *RecordingRenderer) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *RecordingRenderer) Frame() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

//Personal.AI order the ending
