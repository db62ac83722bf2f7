package cmd

import (
	"errors"
	"fmt"

	"github.com/deltawash/deltawash/internal/config"
)

// ManifestError wraps a problem parsing or resolving a demo manifest;
// spec.md §7 keeps it distinct from ConfigError even though both map to
// exit code 2, since one aborts startup and the other aborts only the
// current invocation.
type ManifestError struct {
	Path   string
	Reason string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest: %s: %s", e.Path, e.Reason)
}

// VerificationError is returned by `demo --verify` and `analytics
// accuracy --threshold` when the replayed session failed the post-replay
// invariant checks or fell short of the accuracy threshold.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed: %s", e.Reason)
}

// ExitCodeFor maps a command error to the exit code spec.md §6 defines:
// 0 success, 2 config/manifest error, 3 verification failure, 1 anything
// else. nil is never passed here; main only calls this when err != nil.
func ExitCodeFor(err error) int {
	var configErr *config.ConfigError
	var manifestErr *ManifestError
	var verifyErr *VerificationError

	switch {
	case errors.As(err, &configErr):
		return 2
	case errors.As(err, &manifestErr):
		return 2
	case errors.As(err, &verifyErr):
		return 3
	default:
		return 1
	}
}
