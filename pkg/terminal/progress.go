package terminal

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress renders the (elapsed, total) pairs reported by the orchestrator.
type Progress interface {
	Update(elapsed, total float64)
	Finish()
}

// ProgressFactory creates one indicator per generation request.
type ProgressFactory func(description string) Progress

// NewBarProgress draws a terminal progress bar on w.
func NewBarProgress(w io.Writer) ProgressFactory {
	return func(description string) Progress {
		bar := progressbar.NewOptions64(1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "#",
				SaucerHead:    ">",
				SaucerPadding: "-",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
		return &barProgress{bar: bar}
	}
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Update(elapsed, total float64) {
	p.bar.ChangeMax64(int64(total))
	_ = p.bar.Set64(int64(elapsed))
}

func (p *barProgress) Finish() {
	_ = p.bar.Finish()
}

type nopProgress struct{}

func (nopProgress) Update(elapsed, total float64) {}
func (nopProgress) Finish()                       {}

// NopProgress discards progress updates.
func NopProgress(string) Progress {
	return nopProgress{}
}
