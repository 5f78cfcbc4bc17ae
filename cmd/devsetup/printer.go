package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/render"
)

// printer streams run events to the terminal
type printer struct {
	out      io.Writer
	renderer *render.Renderer
	// pending step states are only printed in verbose mode
	verbose bool
}

func newPrinter(out io.Writer, verbose bool) *printer {
	return &printer{out: out, renderer: render.NewRenderer(), verbose: verbose}
}

func (p *printer) StepChanged(state model.StepState) {
	if state.Status == model.StepPending && !p.verbose {
		return
	}
	fmt.Fprintln(p.out, p.renderer.StepLine(state))
}

func (p *printer) Line(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	for _, l := range strings.Split(strings.TrimRight(line, "\n"), "\n") {
		fmt.Fprintln(p.out, "  "+l)
	}
}
