package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
)

// readBuildInfo is swapped out in tests.
var readBuildInfo = debug.ReadBuildInfo

// ReportDiagnostics logs the Go runtime identity and the resolved version of
// the HTTP framework dependency. It only reports — any returned error is
// informational and must not abort startup.
func ReportDiagnostics(ctx context.Context, frameworkPath string) error {
	slog.InfoContext(ctx, "runtime",
		"go_version", runtime.Version(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)

	info, ok := readBuildInfo()
	if !ok {
		return fmt.Errorf("build info unavailable")
	}

	for _, dep := range info.Deps {
		if dep.Path == frameworkPath {
			slog.InfoContext(ctx, "server framework",
				"module", dep.Path,
				"version", dep.Version,
			)
			return nil
		}
	}

	return fmt.Errorf("dependency %s not found in build info", frameworkPath)
}

// DiagnosticsPhase wraps ReportDiagnostics as a Continue phase: a diagnostic
// failure never prevents reaching the cache check.
func DiagnosticsPhase(frameworkPath string) Phase {
	return Phase{
		Name:   "diagnostics",
		Policy: Continue,
		Run: func(ctx context.Context) error {
			return ReportDiagnostics(ctx, frameworkPath)
		},
	}
}
