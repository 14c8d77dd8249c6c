package genesis

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
)

// ViewerName is the name under which the scene's own viewer camera
// shows its frames
const ViewerName = "viewer"

// Viewer displays frames produced while a scene runs with ShowViewer
// set. Source names the camera that produced the frame.
type Viewer interface {
	Show(source string, frame image.Image) error
}

// PNGViewer writes every frame it is shown to a PNG file in a directory,
// one numbered sequence per source
type PNGViewer struct {
	dir    string
	mu     sync.Mutex
	counts map[string]int
}

// NewPNGViewer returns a PNGViewer writing to dir
func NewPNGViewer(dir string) *PNGViewer {
	return &PNGViewer{dir: dir, counts: make(map[string]int)}
}

// Show implements Viewer
func (v *PNGViewer) Show(source string, frame image.Image) error {
	v.mu.Lock()
	n := v.counts[source]
	v.counts[source]++
	v.mu.Unlock()

	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	name := filepath.Join(v.dir, fmt.Sprintf("%v_%06d.png", source, n))
	if err := gg.NewContextForImage(frame).SavePNG(name); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return nil
}

// Frames returns how many frames source has shown
func (v *PNGViewer) Frames(source string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counts[source]
}
