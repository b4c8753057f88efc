package errors

type ExitCode int

const (
	GenericFailureExitCode ExitCode = 1

	AuthFailureExitCode       = 20
	ConflictFailureExitCode   = 21
	NotFoundFailureExitCode   = 22
	NotReadyFailureExitCode   = 23
	ValidationFailureExitCode = 24

	UpstreamFailureExitCode = 30
)

// ExitCodeFor maps err to the process exit code used by pilotcl.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case AuthKind:
		return AuthFailureExitCode
	case ConflictKind:
		return ConflictFailureExitCode
	case NotFoundKind:
		return NotFoundFailureExitCode
	case NotReadyKind:
		return NotReadyFailureExitCode
	case ValidationKind:
		return ValidationFailureExitCode
	case UpstreamKind:
		return UpstreamFailureExitCode
	}
	return GenericFailureExitCode
}
