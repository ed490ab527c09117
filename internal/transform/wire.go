package transform

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"transpipe/internal/stage"
)

// Field names of the structpb documents exchanged with remote transformers.
const (
	fieldCode        = "code"
	fieldLoader      = "loader"
	fieldSourcefile  = "sourcefile"
	fieldSourcemap   = "sourcemap"
	fieldOptions     = "options"
	fieldMap         = "map"
	fieldDiagnostics = "diagnostics"
)

func EncodeRequest(r *Request) (*structpb.Struct, error) {
	opts, _ := normalize(map[string]any(r.Options)).(map[string]any)
	if opts == nil {
		opts = map[string]any{}
	}
	s, err := structpb.NewStruct(map[string]any{
		fieldCode:       r.Code,
		fieldLoader:     string(r.Kind),
		fieldSourcefile: r.Sourcefile,
		fieldSourcemap:  r.Sourcemap,
		fieldOptions:    opts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode transform request")
	}
	return s, nil
}

func DecodeRequest(s *structpb.Struct) (*Request, error) {
	m := s.AsMap()
	code, ok := m[fieldCode].(string)
	if !ok {
		return nil, errors.Newf("transform request: %q must be a string", fieldCode)
	}
	r := &Request{Code: code, Options: stage.Options{}}
	if v, ok := m[fieldLoader].(string); ok {
		r.Kind = stage.Kind(v)
	}
	r.Sourcefile, _ = m[fieldSourcefile].(string)
	r.Sourcemap, _ = m[fieldSourcemap].(bool)
	if opts, ok := m[fieldOptions].(map[string]any); ok {
		r.Options = stage.Options(opts)
	}
	return r, nil
}

func EncodeResponse(r *Response) (*structpb.Struct, error) {
	diags := make([]any, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		diags[i] = d
	}
	s, err := structpb.NewStruct(map[string]any{
		fieldCode:        r.Code,
		fieldMap:         r.Map,
		fieldDiagnostics: diags,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode transform response")
	}
	return s, nil
}

func DecodeResponse(s *structpb.Struct) (*Response, error) {
	m := s.AsMap()
	code, ok := m[fieldCode].(string)
	if !ok {
		return nil, errors.Newf("transform response: %q must be a string", fieldCode)
	}
	r := &Response{Code: code}
	r.Map, _ = m[fieldMap].(string)
	if diags, ok := m[fieldDiagnostics].([]any); ok {
		for _, d := range diags {
			if text, ok := d.(string); ok {
				r.Diagnostics = append(r.Diagnostics, text)
			}
		}
	}
	return r, nil
}

// normalize turns the typed containers a programmatic caller may use into
// the generic ones structpb accepts.
func normalize(v any) any {
	switch t := v.(type) {
	case stage.Options:
		return normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	}
	return v
}
