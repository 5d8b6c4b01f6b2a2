package template

// Options models the engine's three configuration toggles (§6) as a plain
// struct threaded through the renderer's constructor, the way the teacher
// threads small option structs (e.g. NewParserWithSource) through its own
// constructors instead of reaching for globals or environment variables.
type Options struct {
	// AutoEscapeHTML controls whether {var:…} and {svar:…} escape their
	// output; default on. {raw:…} never escapes regardless of this.
	AutoEscapeHTML bool

	// SizeWordWidth is 32 or 64: the width of offsets into strings and
	// containers. It affects only maximum representable sizes; Go's own
	// int/uint already vary by platform, so this is carried only to keep
	// the toggle's presence faithful to §6, not because Go code branches
	// on it anywhere today.
	SizeWordWidth int

	// BigEndian affects only JSON number output for sentinel doubles
	// (§6); the JSON writer does not currently emit a binary form, so this
	// is likewise carried for contract fidelity.
	BigEndian bool

	// MaxDepth bounds re-entrant tag rendering (svar arguments, inline-if
	// bodies, nested loops): §9's design note says to "cap recursion depth
	// externally" since the engine itself performs no such check beyond
	// this option.
	MaxDepth int
}

// DefaultOptions returns the engine's default configuration: auto-escape
// on, 64-bit size words, little-endian JSON doubles, depth capped at 64.
func DefaultOptions() Options {
	return Options{
		AutoEscapeHTML: true,
		SizeWordWidth:  64,
		BigEndian:      false,
		MaxDepth:       64,
	}
}
