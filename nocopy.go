package nexusq

// noCopy is embedded in types that must not be copied after first use, such
// as RefCount. It has no behavior of its own; `go vet`'s copylocks check
// flags any value containing a noCopy that gets copied by value, the same
// convention used by sync.WaitGroup.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
