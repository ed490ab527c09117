package sink

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Event is one transformer diagnostic reported to the outside world.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Time     time.Time `json:"time"`
	Identity string    `json:"identity"`
	Phase    string    `json:"phase"`
	Stage    int       `json:"stage"`
	Message  string    `json:"message"`
}

func NewEvent(identity, phase string, stage int, message string) Event {
	return Event{
		ID:       uuid.New(),
		Time:     time.Now().UTC(),
		Identity: identity,
		Phase:    phase,
		Stage:    stage,
		Message:  message,
	}
}

// Adapter is the common behaviour every report sink exposes.
type Adapter interface {
	Configure(any) error // driver-specific config ⇒ struct
	Push(Event) error
	Close() error // idempotent
}

/*──────── registry ───────*/

type factory = func() Adapter

var reg = map[string]factory{}

// Register is meant to be called from driver init functions.
func Register(name string, f factory) { reg[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, errors.Newf("unknown sink %q", name)
}

// Fanout pushes every event to all adapters and keeps going past failures.
type Fanout []Adapter

func (f Fanout) Push(ev Event) error {
	var errs error
	for _, a := range f {
		if err := a.Push(ev); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errs
}

func (f Fanout) Close() error {
	var errs error
	for _, a := range f {
		if err := a.Close(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errs
}
