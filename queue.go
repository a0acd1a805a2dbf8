package netqsim

// queue.go holds the PacketQueue, the FIFO of packets waiting at
// (or in service at) a node.  Besides the packets it remembers how long
// it has stood empty

// PacketQueue is a FCFS queue of packets at one node
type PacketQueue struct {
	name    string
	inQ     []*Packet
	qlen    int
	maxQlen int

	// emptyTime accumulates the time spent empty up to emptySince,
	// the instant the queue last became empty
	emptyTime  float64
	emptySince float64
}

// CreatePacketQueue is a constructor.  The queue starts empty at time 0
func CreatePacketQueue(name string) *PacketQueue {
	pq := new(PacketQueue)
	pq.name = name
	pq.inQ = make([]*Packet, 0)
	return pq
}

// Enqueue appends pckt.  If the queue was empty the empty period ends now
func (pq *PacketQueue) Enqueue(pckt *Packet, now float64) {
	if pq.qlen == 0 {
		pq.emptyTime += now - pq.emptySince
	}
	pq.inQ = append(pq.inQ, pckt)
	pq.qlen += 1
	if pq.qlen > pq.maxQlen {
		pq.maxQlen = pq.qlen
	}
}

// Dequeue removes and returns the packet at the front of the queue.
// The boolean is false, and the packet nil, if the queue is empty
func (pq *PacketQueue) Dequeue(now float64) (bool, *Packet) {
	if pq.qlen == 0 {
		return false, nil
	}
	var pckt *Packet
	pckt, pq.inQ = pq.inQ[0], pq.inQ[1:]
	pq.qlen -= 1
	if pq.qlen == 0 {
		pq.emptySince = now
	}
	return true, pckt
}

// Front returns the packet at the head of the queue without removing it
func (pq *PacketQueue) Front() (bool, *Packet) {
	if pq.qlen == 0 {
		return false, nil
	}
	return true, pq.inQ[0]
}

// Len gives the number of packets in the queue
func (pq *PacketQueue) Len() int {
	return pq.qlen
}

// MaxLen gives the largest occupancy seen so far
func (pq *PacketQueue) MaxLen() int {
	return pq.maxQlen
}

// EmptyTime returns the cumulative time the queue has been empty,
// including the current empty period if there is one
func (pq *PacketQueue) EmptyTime(now float64) float64 {
	if pq.qlen > 0 {
		return pq.emptyTime
	}
	return pq.emptyTime + (now - pq.emptySince)
}

// Name returns the queue's label
func (pq *PacketQueue) Name() string {
	return pq.name
}
