package stage

import (
	"maps"
	"slices"
)

// Options is the transformer option bag of a stage. Keys are opaque to the
// pipeline apart from the few it reads (sourcemap, format, tsconfigRaw).
type Options map[string]any

// Merge returns a new bag holding o overridden key by key by over.
func (o Options) Merge(over Options) Options {
	out := make(Options, len(o)+len(over))
	maps.Copy(out, o)
	maps.Copy(out, over)
	return out
}

func (o Options) Clone() Options {
	if o == nil {
		return Options{}
	}
	return maps.Clone(o)
}

func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o Options) String(key string) (string, bool) {
	v, ok := o[key].(string)
	return v, ok
}

func (o Options) Bool(key string) (bool, bool) {
	v, ok := o[key].(bool)
	return v, ok
}

// Without returns a copy of o lacking the given keys.
func (o Options) Without(keys ...string) Options {
	out := o.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Keys returns the option names in sorted order.
func (o Options) Keys() []string {
	return slices.Sorted(maps.Keys(o))
}
