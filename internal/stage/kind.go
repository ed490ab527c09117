package stage

// Kind is the language tag of a stage, the same vocabulary as a transformer
// loader name. Tags outside the constants below are passed through as-is.
type Kind string

const (
	KindJS   Kind = "js"
	KindTS   Kind = "ts"
	KindJSX  Kind = "jsx"
	KindTSX  Kind = "tsx"
	KindCSS  Kind = "css"
	KindJSON Kind = "json"
	KindText Kind = "text"
)

// ScriptLike reports whether files of this kind can be imported as modules
// and so take part in directory index lookups.
func (k Kind) ScriptLike() bool {
	switch k {
	case KindJS, KindTS, KindJSX, KindTSX:
		return true
	}
	return false
}

// Extensions lists the file extensions tried for this kind, canonical first.
func (k Kind) Extensions() []string {
	switch k {
	case "":
		return nil
	case KindJS:
		return []string{"js", "cjs", "mjs"}
	case KindTS:
		return []string{"ts", "cts", "mts"}
	}
	return []string{string(k)}
}

// Produces is the kind of code a transformer emits for input of this kind.
func (k Kind) Produces() Kind {
	if k == KindCSS {
		return KindCSS
	}
	return KindJS
}
