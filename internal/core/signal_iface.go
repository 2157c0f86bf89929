package core

// Frame is one encoded message for a UI client.
type Frame []byte

// SignalConnection abstracts the UI messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
