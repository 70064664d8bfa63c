package win32

// Platform is the per-thread state through which the entry points report
// their outcome to the program.
type Platform interface {
	SetLastError(Errno)
	SetEvent(Handle) error
}

// Propagate stores the error code describing err as the last error.
func Propagate(p Platform, err error) {
	p.SetLastError(ErrnoOf(err))
}
