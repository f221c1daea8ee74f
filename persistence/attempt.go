package persistence

// Source names the store tier that ultimately served an operation.
type Source string

const (
	// SourceRemote means the authoritative store handled the operation.
	SourceRemote Source = "remote"
	// SourceCache means the operation degraded to the local mirror.
	SourceCache Source = "cache"
)

// Attempt is the first-class record of one fallback decision: which
// tier served the call and, when the remote tier was skipped over, the
// transport error that caused it. Callers above never see that error as
// a failure; it exists for logging and tests.
type Attempt struct {
	Source    Source
	RemoteErr error
}

func remoteAttempt() Attempt {
	return Attempt{Source: SourceRemote}
}

func cacheAttempt(err error) Attempt {
	return Attempt{Source: SourceCache, RemoteErr: err}
}

// Degraded reports whether the operation fell back to the local mirror.
func (a Attempt) Degraded() bool { return a.Source == SourceCache }
