package stdout

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"transpipe/sink"
)

/* ────────── public YAML config ────────── */
type Config struct {
	PrintCounter bool `yaml:"print_counter"` // prepend seq#
	// Writer defaults to stdout.
	Writer io.Writer `yaml:"-"`
}

/* ────────── driver ────────── */
type driver struct {
	cfg Config

	mu  sync.Mutex // serializes writes and seq
	seq uint64
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return errors.Newf("stdout-sink: expected Config, got %T", raw)
	}
	if c.Writer == nil {
		c.Writer = os.Stdout
	}
	d.cfg = c
	return nil
}

func (d *driver) Push(ev sink.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++

	var b strings.Builder
	if d.cfg.PrintCounter {
		fmt.Fprintf(&b, "[report %06d] ", d.seq)
	}
	fmt.Fprintf(&b, "%s %s (stage %d): %s", ev.Phase, ev.Identity, ev.Stage, strings.TrimRight(ev.Message, "\n"))
	b.WriteByte('\n')
	_, err := io.WriteString(d.cfg.Writer, b.String())
	return err
}

func (d *driver) Close() error { return nil }

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}
