package terminal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lokutor-ai/lokutor-musicgen/pkg/audio"
)

// ExitKeyword ends an interactive session.
const ExitKeyword = "exit"

var (
	secsDirective   = regexp.MustCompile(`--secs[ =](\d+)`)
	outputDirective = regexp.MustCompile(`--output[ =](\S+)`)
	pathLike        = regexp.MustCompile(`^[\w./~-]+$`)

	// directiveToken matches a whole directive token, well formed or not, so
	// it can be removed from the prompt.
	directiveToken = regexp.MustCompile(`--(?:secs|output)[ =]\S+`)
)

// State is what the session remembers between iterations. Directives typed
// with a prompt change Secs and Output for that and every later iteration.
type State struct {
	Prompt string
	Secs   int
	Output string
}

// Apply reads inline directives from freshly typed text and returns the
// prompt with the directives removed, which also becomes the queued Prompt.
// The first numeric --secs and the first --output win; values that do not
// parse leave the previous setting in place.
func (s *State) Apply(line string) string {
	if secs, ok := captureSecs(line); ok {
		s.Secs = secs
	}
	if output, ok := captureOutput(line); ok {
		s.Output = output
	}

	stripped := directiveToken.ReplaceAllString(line, " ")
	s.Prompt = strings.Join(strings.Fields(stripped), " ")
	return s.Prompt
}

func captureSecs(line string) (int, bool) {
	m := secsDirective.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

func captureOutput(line string) (string, bool) {
	m := outputDirective.FindStringSubmatch(line)
	if m == nil || !pathLike.MatchString(m[1]) {
		return "", false
	}
	return m[1], true
}

// EnsureExtension appends the WAV extension when path lacks it.
func EnsureExtension(path string) string {
	if strings.HasSuffix(strings.ToLower(path), audio.Extension) {
		return path
	}
	return path + audio.Extension
}
