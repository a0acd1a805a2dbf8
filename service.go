package netqsim

// service.go holds the Service entity, the busy/idle state of a node
// together with the statistics gathered as it completes packets, and the
// node struct that ties a Service to its queue and service-time sampler

import (
	"fmt"
)

// ServiceState is the state of a node
type ServiceState int

const (
	Idle ServiceState = iota
	Busy
)

func (ss ServiceState) String() string {
	if ss == Busy {
		return "BUSY"
	}
	return "IDLE"
}

// Completion records the timing of one finished packet at a node
type Completion struct {
	Arrival  float64 // when the packet joined this node's queue
	Begin    float64 // when service on it began
	Service  float64 // duration of service
	End      float64 // when service completed
	Wait     float64 // time spent in the queue before service
	InSystem float64 // Wait + Service
	Idle     float64 // time the node stood idle just before this service
}

// Service holds the state and accumulated statistics of one node
type Service struct {
	state        ServiceState
	totalPackets int
	totalService float64
	lastEnd      float64
	last         Completion
}

// CreateService is a constructor; the node starts out idle
func CreateService() *Service {
	return &Service{state: Idle}
}

// State returns the current state
func (srv *Service) State() ServiceState {
	return srv.state
}

// SetState changes the state
func (srv *Service) SetState(state ServiceState) {
	srv.state = state
}

// TotalPackets gives the number of packets completed
func (srv *Service) TotalPackets() int {
	return srv.totalPackets
}

// TotalServiceTime gives the summed service durations
func (srv *Service) TotalServiceTime() float64 {
	return srv.totalService
}

// LastServiceEnd gives the time of the most recent completion
func (srv *Service) LastServiceEnd() float64 {
	return srv.lastEnd
}

// Last returns the most recent completion record
func (srv *Service) Last() Completion {
	return srv.last
}

// MeanServiceTime gives totalServiceTime/totalPackets, or 0 before the first completion
func (srv *Service) MeanServiceTime() float64 {
	if srv.totalPackets == 0 {
		return 0.0
	}
	return srv.totalService / float64(srv.totalPackets)
}

// RecordCompletion computes the timing of the packet that completes service
// at time now, given when it joined this node's queue.  If it arrived after
// the previous completion the node was idle and service began on arrival;
// otherwise the node was saturated and service began at the previous completion
func (srv *Service) RecordCompletion(arrival, now float64) Completion {
	var cmp Completion
	cmp.Arrival = arrival
	if arrival > srv.lastEnd {
		cmp.Begin = arrival
		cmp.Wait = 0.0
		cmp.Idle = arrival - srv.lastEnd
	} else {
		cmp.Begin = srv.lastEnd
		cmp.Wait = srv.lastEnd - arrival
		cmp.Idle = 0.0
	}
	cmp.End = now
	cmp.Service = cmp.End - cmp.Begin
	cmp.InSystem = cmp.Service + cmp.Wait

	srv.lastEnd = now
	srv.totalService += cmp.Service
	srv.totalPackets += 1
	srv.last = cmp
	return cmp
}

// node is a work-performing element of the network: the router or a server
type node struct {
	name      string
	departure EventKind
	queue     *PacketQueue
	service   *Service
	rng       *RandomStream
	sample    sampler
	params    []float64

	// samples of each completion, kept for the end-of-run summary
	waits    []float64
	inSystem []float64
}

// createNode is a constructor.  dist names the service-time distribution
func createNode(name string, departure EventKind, mean, sigma float64, dist string, deterministic bool) (*node, error) {
	if deterministic {
		dist = "const"
	}
	smpl, err := samplerByName(dist)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", name, err)
	}
	nd := new(node)
	nd.name = name
	nd.departure = departure
	nd.queue = CreatePacketQueue(name)
	nd.service = CreateService()
	nd.rng = CreateRandomStream(name, deterministic)
	nd.sample = smpl
	nd.params = []float64{mean, sigma}
	nd.waits = make([]float64, 0)
	nd.inSystem = make([]float64, 0)
	return nd, nil
}

// serviceTime draws the duration of the next service, never negative
func (nd *node) serviceTime() float64 {
	st := nd.sample(nd.rng, nd.params)
	if st < 0.0 {
		st = 0.0
	}
	return st
}

// complete records the completion of a packet that joined this node's queue at arrival
func (nd *node) complete(arrival, now float64) Completion {
	cmp := nd.service.RecordCompletion(arrival, now)
	nd.waits = append(nd.waits, cmp.Wait)
	nd.inSystem = append(nd.inSystem, cmp.InSystem)
	return cmp
}
