package control

import (
	"os"
	"strings"
)

type Command string

const (
	CommandRun  Command = "RUN"
	CommandStop Command = "STOP"
)

// Switch is the file-based pause/resume signal an external operator writes.
// A missing or unreadable file means RUN, so the engine never blocks on it.
type Switch struct {
	path string
}

func NewSwitch(path string) *Switch {
	return &Switch{path: path}
}

func (s *Switch) Read() Command {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return CommandRun
	}
	if strings.EqualFold(strings.TrimSpace(string(raw)), string(CommandStop)) {
		return CommandStop
	}
	return CommandRun
}

func (s *Switch) Paused() bool {
	return s.Read() == CommandStop
}
