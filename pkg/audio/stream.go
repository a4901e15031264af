package audio

// Stream is a playback in progress. It owns its own copy of the samples.
type Stream interface {
	// Done is closed when every sample has been handed to the device or the
	// stream was closed.
	Done() <-chan struct{}
	Close() error
}
