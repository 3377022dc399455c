package process

import "github.com/stof-engine/stof/stoferr"

// errProcessVanished reports that an awaited pid no longer has a known
// process (it was never spawned under this scheduler, or bookkeeping was
// lost) — surfaced to the waiter as an AwaitError.
func errProcessVanished(pid string) error {
	return stoferr.New(stoferr.Path, "process", "awaited process id not found").WithDetail("pid", pid)
}
