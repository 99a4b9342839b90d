package mqtt

import "log"

// bufferedMsg is a serialized MQTT message held for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO of messages queued while offline.
// When full, the oldest message is dropped.
// Not safe for concurrent use — caller must synchronize.
type ringBuffer struct {
	msgs    []bufferedMsg
	next    int // next write position
	count   int
	dropped int // messages lost since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{msgs: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	r.msgs[r.next] = msg
	r.next = (r.next + 1) % len(r.msgs)
	if r.count < len(r.msgs) {
		r.count++
		return
	}
	if r.dropped == 0 {
		log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", len(r.msgs))
	}
	r.dropped++
}

// drainAll returns queued messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	if r.dropped > 0 {
		log.Printf("mqtt: %d buffered messages were dropped while offline", r.dropped)
	}

	out := make([]bufferedMsg, 0, r.count)
	first := (r.next - r.count + len(r.msgs)) % len(r.msgs)
	for i := 0; i < r.count; i++ {
		out = append(out, r.msgs[(first+i)%len(r.msgs)])
	}

	r.next, r.count, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
