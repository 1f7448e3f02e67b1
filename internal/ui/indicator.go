package ui

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

const IndicatorProcessing = "Processing..."

// Indicator is the terminal spinner shown while a request is in flight.
type Indicator struct {
	mu   sync.Mutex
	s    *spinner.Spinner
	text string
}

var (
	globalIndicator *Indicator
	indicatorOnce   sync.Once
)

// GetIndicator returns the singleton indicator instance
func GetIndicator() *Indicator {
	indicatorOnce.Do(func() {
		globalIndicator = &Indicator{text: IndicatorProcessing}
		globalIndicator.s = spinner.New(spinner.CharSets[14],
			100*time.Millisecond,
			spinner.WithWriter(os.Stderr))
		globalIndicator.s.Color("fgHiMagenta", "bold")
	})
	return globalIndicator
}

func (i *Indicator) IsActive() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.s != nil && i.s.Active()
}

func (i *Indicator) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.s != nil && i.s.Active() {
		i.s.Stop()
	}
}

// Start shows the spinner with text, replacing whatever it showed before.
func (i *Indicator) Start(text string) {
	if text == "" {
		text = IndicatorProcessing
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.text = text
	i.restartLocked()
}

// Resume restarts the spinner with the text it had when it was stopped.
func (i *Indicator) Resume() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.restartLocked()
}

func (i *Indicator) restartLocked() {
	if i.s.Active() {
		i.s.Stop()
	}
	i.s.Lock()
	i.s.Suffix = fmt.Sprintf(" %s", i.text)
	i.s.Unlock()
	i.s.Start()
}
