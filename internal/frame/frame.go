package frame

// #region annotations

// Annotation characters prefixed to a statement serialization.
const (
	EmptyAnnotation  = "~"
	FailedAnnotation = "!"
)

// #endregion annotations

// #region frame

// Frame is the opaque result of a function application.
type Frame interface {
	// Copy returns an independent snapshot, used to score before/after.
	Copy() Frame
	// Wrap attaches sub-result frames when composing a sequence.
	Wrap(others []Frame)
	// Empty reports whether the frame is the "no meaningful content" sentinel.
	Empty() bool
}

// Provider produces fresh frames for sequence wrapping.
type Provider interface {
	NewFrame() Frame
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() Frame

// NewFrame calls f.
func (f ProviderFunc) NewFrame() Frame { return f() }

// #endregion frame

// #region annotate

// Annotation returns the serialization prefix for a result.
// ok=false means the function produced no result.
func Annotation(f Frame, ok bool) string {
	if !ok || f == nil {
		return FailedAnnotation
	}
	if f.Empty() {
		return EmptyAnnotation
	}
	return ""
}

// StripAnnotation removes a single leading annotation so serialized text can
// be parsed again.
func StripAnnotation(s string) string {
	if len(s) > 0 && (s[:1] == EmptyAnnotation || s[:1] == FailedAnnotation) {
		return s[1:]
	}
	return s
}

// #endregion annotate
