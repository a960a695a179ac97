// Package session holds the state a viewer process owns for its lifetime.
package session

import (
	"fmt"
	"path/filepath"

	"github.com/san-kum/atmovis/internal/camera"
)

const (
	ScreenshotPattern = "Screenshot%05d.png"
	DefaultCameraFile = "camera.yaml"
)

// Session owns the screenshot counter, the working camera and where the
// camera is saved.
type Session struct {
	Dir        string
	CameraPath string
	Camera     camera.State

	screenshots int
}

// New starts a session writing into dir. A zero cam is replaced by the
// default camera; the session keeps its own copy either way.
func New(dir, cameraPath string, cam *camera.State) *Session {
	if cameraPath == "" {
		cameraPath = filepath.Join(dir, DefaultCameraFile)
	}
	s := &Session{Dir: dir, CameraPath: cameraPath, Camera: camera.Default()}
	if cam != nil {
		s.Camera = cam.Clone()
	}
	return s
}

// Screenshots returns how many screenshots were written.
func (s *Session) Screenshots() int { return s.screenshots }

// NextScreenshot returns the path the next screenshot goes to.
func (s *Session) NextScreenshot() string {
	return filepath.Join(s.Dir, fmt.Sprintf(ScreenshotPattern, s.screenshots))
}

// Screenshot calls write with the next path and advances the counter only
// when write succeeds. Existing files are overwritten.
func (s *Session) Screenshot(write func(path string) error) (string, error) {
	path := s.NextScreenshot()
	if err := write(path); err != nil {
		return "", fmt.Errorf("screenshot %s: %w", filepath.Base(path), err)
	}
	s.screenshots++
	return path, nil
}

// SaveCamera records st as the session camera and writes it to CameraPath.
func (s *Session) SaveCamera(st camera.State) error {
	s.Camera = st.Clone()
	return camera.Save(s.CameraPath, s.Camera)
}
