package netqsim

// topology.go describes the network the packets move through, and
// provides the lookups the router uses to forward a packet toward its
// destination server.
//
// The network is represented as a directed graph in the form used by
// gonum's graph packages, so that the forwarding decision is a shortest-path
// question: the next hop from the router toward a stream's destination is
// the second node on the shortest path between them.   Shortest-path trees
// are computed once per source node and cached.

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// names of the network elements
const (
	RouterName  = "R"
	Server1Name = "S1"
	Server2Name = "S2"
)

// Diagram is the picture of the simulated network
const Diagram = `
=========================================================
    Complex Network System Simulation         _
                                    _ _ _ _  | |
    Px ---->                 --->  |_|_|_|_| |_|
  Time:5s   \  _ _ _ _     /                 S1, Time:4s
              |_|_|_|_| (x)                   _
            /            R \        _ _ _ _  | |
    Py ---->        Time:1s  --->  |_|_|_|_| |_|
  Time:10s                                   S2, Time:7s
=========================================================
`

// Topology holds the graph of the network
type Topology struct {
	graph    *simple.DirectedGraph
	idByName map[string]int64
	nameByID map[int64]string
	cachedSP map[int64]path.Shortest
}

// CreateTopology is a constructor for an empty topology
func CreateTopology() *Topology {
	tp := new(Topology)
	tp.graph = simple.NewDirectedGraph()
	tp.idByName = make(map[string]int64)
	tp.nameByID = make(map[int64]string)
	tp.cachedSP = make(map[int64]path.Shortest)
	return tp
}

// BuildTopology creates the fixed network: two sources feeding the router,
// which feeds the two servers
func BuildTopology() *Topology {
	tp := CreateTopology()
	tp.AddLink(string(StreamPx), RouterName)
	tp.AddLink(string(StreamPy), RouterName)
	tp.AddLink(RouterName, Server1Name)
	tp.AddLink(RouterName, Server2Name)
	return tp
}

// addNode gives name an id in the graph, if it does not have one already
func (tp *Topology) addNode(name string) graph.Node {
	id, present := tp.idByName[name]
	if present {
		return tp.graph.Node(id)
	}
	id = int64(len(tp.idByName) + 1)
	tp.idByName[name] = id
	tp.nameByID[id] = name
	gn := simple.Node(id)
	tp.graph.AddNode(gn)
	return gn
}

// AddLink connects from to to.  Adding a link invalidates cached paths
func (tp *Topology) AddLink(from, to string) {
	if from == to {
		panic(fmt.Errorf("link from %s to itself", from))
	}
	f := tp.addNode(from)
	t := tp.addNode(to)
	tp.graph.SetEdge(tp.graph.NewEdge(f, t))
	tp.cachedSP = make(map[int64]path.Shortest)
}

// Names lists the network elements, sorted
func (tp *Topology) Names() []string {
	names := make([]string, 0, len(tp.idByName))
	for name := range tp.idByName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Successors lists, sorted, the elements name sends packets to directly
func (tp *Topology) Successors(name string) []string {
	id, present := tp.idByName[name]
	if !present {
		return nil
	}
	succ := []string{}
	nodes := tp.graph.From(id)
	for nodes.Next() {
		succ = append(succ, tp.nameByID[nodes.Node().ID()])
	}
	slices.Sort(succ)
	return succ
}

// getSPTree returns the shortest path tree rooted in from, computing and caching it if need be
func (tp *Topology) getSPTree(from int64) path.Shortest {
	spTree, present := tp.cachedSP[from]
	if present {
		return spTree
	}
	spTree = path.DijkstraFrom(tp.graph.Node(from), tp.graph)
	tp.cachedSP[from] = spTree
	return spTree
}

// Route returns the names of the elements on the shortest path from src to dst, inclusive
func (tp *Topology) Route(src, dst string) ([]string, error) {
	srcID, present := tp.idByName[src]
	if !present {
		return nil, fmt.Errorf("%s is not in the topology", src)
	}
	dstID, present := tp.idByName[dst]
	if !present {
		return nil, fmt.Errorf("%s is not in the topology", dst)
	}

	nodeSeq, _ := tp.getSPTree(srcID).To(dstID)
	if len(nodeSeq) == 0 {
		return nil, fmt.Errorf("no route from %s to %s", src, dst)
	}

	route := make([]string, 0, len(nodeSeq))
	for _, gn := range nodeSeq {
		route = append(route, tp.nameByID[gn.ID()])
	}
	return route, nil
}

// NextHop returns the element a packet at 'at' is handed to on its way to dst
func (tp *Topology) NextHop(at, dst string) (string, error) {
	route, err := tp.Route(at, dst)
	if err != nil {
		return "", err
	}
	if len(route) < 2 {
		return "", fmt.Errorf("%s is already at %s", at, dst)
	}
	return route[1], nil
}
