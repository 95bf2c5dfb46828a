package doenetgraph

import "go.uber.org/zap"

// log is the package-wide structured logger. It defaults to a no-op
// implementation so the engine stays silent — and allocation-free on the
// logging path — until a caller opts in with SetLogger.
var log = zap.NewNop()

// SetLogger replaces the package-wide logger used for graph construction
// warnings and action dispatch. Passing nil restores the no-op default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l
}
