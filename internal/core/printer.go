package core

import (
	"time"
)

// PagePrinter is the device the worker prints through, one page at a time.
// PrintPage blocks for the duration of the page and returns an error if the
// device failed mid-page.
type PagePrinter interface {
	PrintPage(jobID string, page int) error
}

// SimulatedPrinter models a single physical printer by sleeping a fixed
// per-page duration. There is exactly one device and it has no parallelism.
type SimulatedPrinter struct {
	delay time.Duration
}

func NewSimulatedPrinter(delay time.Duration) *SimulatedPrinter {
	if delay < 0 {
		delay = 0
	}
	return &SimulatedPrinter{delay: delay}
}

func (p *SimulatedPrinter) PrintPage(jobID string, page int) error {
	time.Sleep(p.delay)
	return nil
}
