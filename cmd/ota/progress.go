package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/moffa90/go-ota/ota"
)

const barWidth = 40

// progressBar renders download progress on a single terminal line.
type progressBar struct {
	w    io.Writer
	last int
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w, last: -1}
}

// Update redraws the bar when the whole-percent value changes.
func (b *progressBar) Update(p ota.Progress) {
	pct := int(p.Percentage)
	done := p.State == ota.StateCompleted || p.State.Failed()
	if pct == b.last && !done {
		return
	}
	b.last = pct

	filled := pct * barWidth / 100
	fmt.Fprintf(b.w, "\r[%s%s] %3d%% %7d KiB written",
		strings.Repeat("=", filled),
		strings.Repeat(" ", barWidth-filled),
		pct,
		p.BytesWritten/1024)

	if done {
		fmt.Fprintln(b.w)
	}
}
