package sink

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAdapter struct {
	events []Event
	err    error
	closed int
}

func (m *memAdapter) Configure(any) error { return nil }

func (m *memAdapter) Push(ev Event) error {
	m.events = append(m.events, ev)
	return m.err
}

func (m *memAdapter) Close() error {
	m.closed++
	return nil
}

func TestNewEvent(t *testing.T) {
	a := NewEvent("/a.ts", "transform", 2, "unused label")
	b := NewEvent("/a.ts", "transform", 2, "unused label")
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, a.Stage)
	assert.False(t, a.Time.IsZero())
}

func TestRegistry(t *testing.T) {
	Register("mem", func() Adapter { return &memAdapter{} })
	a, err := NewAdapter("mem")
	require.NoError(t, err)
	assert.IsType(t, &memAdapter{}, a)

	_, err = NewAdapter("nope")
	assert.Error(t, err)
}

func TestFanout_PushesToAllDespiteErrors(t *testing.T) {
	failing := &memAdapter{err: errors.New("down")}
	ok := &memAdapter{}
	f := Fanout{failing, ok}

	err := f.Push(NewEvent("/a.js", "transform", 0, "m"))
	require.Error(t, err)
	assert.Len(t, ok.events, 1)

	require.NoError(t, f.Close())
	assert.Equal(t, 1, failing.closed)
	assert.Equal(t, 1, ok.closed)
}
