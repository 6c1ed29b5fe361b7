package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"ember/kernel"
	"ember/report"

	"github.com/fatih/color"
	"github.com/golang/glog"
)

// Publisher forwards decoded reports.
type Publisher interface {
	Publish(r report.Report, at time.Time) error
}

type monitor struct {
	out io.Writer
	pub Publisher
	now func() time.Time

	fault *color.Color
	user  *color.Color
	dim   *color.Color

	seen int
}

func newMonitor(out io.Writer, pub Publisher, colors bool) *monitor {
	m := &monitor{
		out:   out,
		pub:   pub,
		now:   time.Now,
		fault: color.New(color.FgRed, color.Bold),
		user:  color.New(color.FgYellow),
		dim:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{m.fault, m.user, m.dim} {
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return m
}

// run decodes reports from r until it is exhausted. A frame cut off by the
// end of the stream is not an error.
func (m *monitor) run(r io.Reader) error {
	d := report.NewDecoder(r)
	defer func() {
		if n := d.Dropped(); n > 0 {
			glog.Warningf("dropped %d corrupted frames", n)
		}
	}()
	for {
		rep, err := d.Next()
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		case err != nil:
			return fmt.Errorf("read: %w", err)
		}
		m.handle(rep)
	}
}

func (m *monitor) handle(r report.Report) {
	m.seen++
	at := m.now()
	m.dim.Fprintf(m.out, "%s ", at.Format("15:04:05.000"))
	c := m.fault
	if r.Code >= kernel.FaultUser {
		c = m.user
	}
	c.Fprintln(m.out, r.String())

	if m.pub == nil {
		return
	}
	if err := m.pub.Publish(r, at); err != nil {
		glog.Errorf("publish: %v", err)
	} else {
		glog.V(1).Infof("published fault %d from task %d", r.Code, r.Task)
	}
}
