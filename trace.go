package netqsim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
)

// TraceHeader is the first line of a trace file
const TraceHeader = "node,no,type,arrival,begin,service,end,wait,spend,idle"

// ServiceTrace saves the timing of one completion at a node,
// for post-run analysis
type ServiceTrace struct {
	Time     float64 `json:"time" yaml:"time"`         // completion time in float64
	Ticks    int64   `json:"ticks" yaml:"ticks"`       // ticks variable of time
	Priority int64   `json:"priority" yaml:"priority"` // priority field of time-stamp, the completion sequence number
	Node     string  `json:"node" yaml:"node"`
	No       int     `json:"no" yaml:"no"` // router completions at the time of the record
	Stream   string  `json:"stream" yaml:"stream"`
	Arrival  float64 `json:"arrival" yaml:"arrival"`
	Begin    float64 `json:"begin" yaml:"begin"`
	Service  float64 `json:"service" yaml:"service"`
	End      float64 `json:"end" yaml:"end"`
	Wait     float64 `json:"wait" yaml:"wait"`
	InSystem float64 `json:"insystem" yaml:"insystem"`
	Idle     float64 `json:"idle" yaml:"idle"`
}

// fmtTime renders a time or duration the way all trace lines do
func fmtTime(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Line gives the comma-separated form of the record written to the trace file
func (st *ServiceTrace) Line() string {
	fields := []string{st.Node, strconv.Itoa(st.No), st.Stream,
		fmtTime(st.Arrival), fmtTime(st.Begin), fmtTime(st.Service), fmtTime(st.End),
		fmtTime(st.Wait), fmtTime(st.InSystem), fmtTime(st.Idle)}
	return strings.Join(fields, ",")
}

// TraceManager gathers the completion records of a run.  Each record is
// written as a line to out (when one is given) as soon as it is added, and
// kept for WriteToFile when InUse is set
type TraceManager struct {
	// experiment keeps records
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// all trace records for this experiment, in completion order
	Traces []ServiceTrace `json:"traces" yaml:"traces"`

	out     io.Writer
	numRcds int64
	werr    error
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether records are retained.  out receives the
// line-oriented trace, starting with TraceHeader, and may be nil
func CreateTraceManager(expName string, active bool, out io.Writer) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.Traces = make([]ServiceTrace, 0)
	tm.out = out
	if out != nil {
		_, tm.werr = fmt.Fprintln(out, TraceHeader)
	}
	return tm
}

// Active tells the caller whether the records are being retained
func (tm *TraceManager) Active() bool {
	return tm.InUse
}

// Err returns the first error met writing trace lines
func (tm *TraceManager) Err() error {
	return tm.werr
}

// Len gives the number of records added
func (tm *TraceManager) Len() int {
	return int(tm.numRcds)
}

// AddTrace creates a record of a completion at node and emits it
func (tm *TraceManager) AddTrace(node string, no int, stream StreamID, cmp Completion) ServiceTrace {
	tm.numRcds += 1
	vrt := vrtime.SecondsToTime(cmp.End)
	vrt.SetPri(tm.numRcds)

	st := ServiceTrace{Time: vrt.Seconds(), Ticks: vrt.Ticks(), Priority: vrt.Pri(),
		Node: node, No: no, Stream: string(stream),
		Arrival: cmp.Arrival, Begin: cmp.Begin, Service: cmp.Service, End: cmp.End,
		Wait: cmp.Wait, InSystem: cmp.InSystem, Idle: cmp.Idle}

	if tm.out != nil && tm.werr == nil {
		_, tm.werr = fmt.Fprintln(tm.out, st.Line())
	}

	if tm.InUse {
		tm.Traces = append(tm.Traces, st)
	}
	return st
}

// NodeTraces returns the retained records of the named node
func (tm *TraceManager) NodeTraces(node string) []ServiceTrace {
	rtn := []ServiceTrace{}
	for _, st := range tm.Traces {
		if st.Node == node {
			rtn = append(rtn, st)
		}
	}
	return rtn
}

// WriteToFile stores the retained records to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (tm *TraceManager) WriteToFile(filename string) error {
	if !tm.InUse {
		return nil
	}
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	switch pathExt {
	case ".yaml", ".YAML", ".yml":
		bytes, merr = yaml.Marshal(*tm)
	case ".json", ".JSON":
		bytes, merr = json.MarshalIndent(*tm, "", "\t")
	default:
		return fmt.Errorf("trace file %s needs a .yaml or .json extension", filename)
	}

	if merr != nil {
		return merr
	}

	return os.WriteFile(filename, bytes, 0o644)
}
