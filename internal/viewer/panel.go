package viewer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Panel is a logrus hook that mirrors entries into the viewer's log panel.
type Panel struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func NewPanel(size int) *Panel {
	if size < 1 {
		size = 1
	}
	return &Panel{max: size}
}

func (p *Panel) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel}
}

func (p *Panel) Fire(e *logrus.Entry) error {
	line := e.Message
	if e.Level <= logrus.WarnLevel {
		line = strings.ToUpper(e.Level.String()) + " " + line
	}
	if err, ok := e.Data[logrus.ErrorKey]; ok {
		line = fmt.Sprintf("%s: %v", line, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line)
	if len(p.lines) > p.max {
		p.lines = p.lines[len(p.lines)-p.max:]
	}
	return nil
}

// Lines returns a copy of the retained lines, oldest first.
func (p *Panel) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

// Last returns the most recent n lines.
func (p *Panel) Last(n int) []string {
	lines := p.Lines()
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
