package streaming

// sendBuffer queues best-effort outbound frames while no live socket
// exists. It is a bounded FIFO; overflow evicts the oldest frame. Guarded
// by the Client's send mutex.
type sendBuffer struct {
	frames   []Frame
	capacity int
}

func newSendBuffer(capacity int) *sendBuffer {
	return &sendBuffer{capacity: capacity}
}

func (b *sendBuffer) push(f Frame) {
	if len(b.frames) >= b.capacity {
		b.frames = b.frames[1:]
	}
	b.frames = append(b.frames, f)
}

func (b *sendBuffer) pop() (Frame, bool) {
	if len(b.frames) == 0 {
		return Frame{}, false
	}
	f := b.frames[0]
	b.frames = b.frames[1:]
	return f, true
}

func (b *sendBuffer) len() int {
	return len(b.frames)
}

func (b *sendBuffer) clear() {
	b.frames = nil
}
