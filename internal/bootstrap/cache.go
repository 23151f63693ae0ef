package bootstrap

import "os"

// ExistenceChecker reports whether a filesystem path exists. The production
// implementation is OSChecker; tests inject a fake so no real filesystem is
// needed.
type ExistenceChecker interface {
	Exists(path string) bool
}

type osChecker struct{}

func (osChecker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// OSChecker returns an ExistenceChecker backed by os.Stat.
func OSChecker() ExistenceChecker {
	return osChecker{}
}

// CachesReady reports whether every sentinel file exists. It is a pure
// existence conjunction: file content and timestamps are never inspected, so
// a stale-but-present cache counts as ready indefinitely. An empty sentinel
// set is vacuously ready.
func CachesReady(checker ExistenceChecker, paths []string) bool {
	for _, p := range paths {
		if !checker.Exists(p) {
			return false
		}
	}
	return true
}
