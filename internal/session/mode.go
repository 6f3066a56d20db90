package session

// Mode is the access level of a case file session.
type Mode int

const (
	// Unopened means no case file is open.
	Unopened Mode = iota
	// ExclusiveWrite means this process holds the case lock and may save.
	ExclusiveWrite
	// ReadOnly means the case is loaded but no mutating command may run.
	ReadOnly
)

// String returns the display name of the mode.
func (m Mode) String() string {
	switch m {
	case ExclusiveWrite:
		return "read-write"
	case ReadOnly:
		return "read-only"
	default:
		return "unopened"
	}
}

// CanWrite reports whether mutating commands are permitted.
func (m Mode) CanWrite() bool {
	return m == ExclusiveWrite
}
