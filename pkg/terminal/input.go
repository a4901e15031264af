package terminal

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lokutor-ai/lokutor-musicgen/pkg/orchestrator"
	"github.com/peterh/liner"
)

// LineReader supplies prompts typed by the user. ReadLine returns io.EOF at
// end of input and ErrInterrupted when the user aborts.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	AppendHistory(line string)
}

// LinerReader is a LineReader with line editing and a history file. History
// problems are logged and otherwise ignored.
type LinerReader struct {
	state       *liner.State
	historyPath string
	logger      orchestrator.Logger
}

// NewLinerReader takes over the terminal and loads history from historyPath.
// Close must be called to restore the terminal and save the history.
func NewLinerReader(historyPath string, logger orchestrator.Logger) *LinerReader {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	st := liner.NewLiner()
	st.SetCtrlCAborts(true)

	r := &LinerReader{state: st, historyPath: historyPath, logger: logger}
	r.loadHistory()
	return r
}

func (r *LinerReader) loadHistory() {
	if r.historyPath == "" {
		return
	}
	f, err := os.Open(r.historyPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("could not open history", "path", r.historyPath, "error", err)
		}
		return
	}
	defer f.Close()
	if _, err := r.state.ReadHistory(f); err != nil {
		r.logger.Warn("could not load history", "path", r.historyPath, "error", err)
	}
}

func (r *LinerReader) ReadLine(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	return line, err
}

func (r *LinerReader) AppendHistory(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	r.state.AppendHistory(line)
}

// Close saves the history and restores the terminal.
func (r *LinerReader) Close() error {
	r.saveHistory()
	return r.state.Close()
}

func (r *LinerReader) saveHistory() {
	if r.historyPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.historyPath), 0o755); err != nil {
		r.logger.Warn("could not create history directory", "path", r.historyPath, "error", err)
		return
	}
	f, err := os.Create(r.historyPath)
	if err != nil {
		r.logger.Warn("could not save history", "path", r.historyPath, "error", err)
		return
	}
	defer f.Close()
	if _, err := r.state.WriteHistory(f); err != nil {
		r.logger.Warn("could not save history", "path", r.historyPath, "error", err)
	}
}
