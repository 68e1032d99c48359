package main

import (
	"fmt"

	"github.com/pkg/profile"
)

// startProfile starts a cpu or mem profile written to dir. An empty kind
// profiles nothing. The returned stop is safe to call more than once.
// Signals are left to main so a shutdown still flushes the recorder.
func startProfile(kind, dir string) (func(), error) {
	var mode func(*profile.Profile)
	switch kind {
	case "":
		return func() {}, nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	default:
		return nil, fmt.Errorf("unknown profile %q (want cpu or mem)", kind)
	}
	return profile.Start(mode, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet).Stop, nil
}
