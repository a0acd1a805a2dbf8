package netqsim

// config.go holds the serializable description of a simulation run,
// and the stopping rule derived from the command line

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConflictingBounds is returned when both an end time and an end count are given
var ErrConflictingBounds = errors.New("end time and end packet count are mutually exclusive")

// ErrNonPositiveBound is returned for an end time or end count that is not positive
var ErrNonPositiveBound = errors.New("bound must be positive")

// default bounds used when neither is given
const (
	DefaultEndTime  = 200.0
	DefaultEndCount = 100
)

// MaxSeed is the largest master seed rngstream accepts
const MaxSeed uint64 = 4294944443 - 7

// A StreamDesc describes one input packet stream
type StreamDesc struct {
	// mean interarrival time, in seconds
	Interarrival float64 `json:"interarrival" yaml:"interarrival"`

	// interarrival distribution, "exp" or "const"
	Dist string `json:"dist" yaml:"dist"`

	// name of the server the stream's packets are delivered to
	Dst string `json:"dst" yaml:"dst"`
}

// A NodeDesc describes the service process of the router or a server
type NodeDesc struct {
	// mean service time, in seconds
	Mean float64 `json:"mean" yaml:"mean"`

	// standard deviation of the service time
	Sigma float64 `json:"sigma" yaml:"sigma"`

	// service distribution, "normal" or "const"
	Dist string `json:"dist" yaml:"dist"`
}

// SimCfg holds the parameters of a run
type SimCfg struct {
	// Name is an identifier for the experiment
	Name string `json:"name" yaml:"name"`

	Px      StreamDesc `json:"px" yaml:"px"`
	Py      StreamDesc `json:"py" yaml:"py"`
	Router  NodeDesc   `json:"router" yaml:"router"`
	Server1 NodeDesc   `json:"server1" yaml:"server1"`
	Server2 NodeDesc   `json:"server2" yaml:"server2"`

	// Deterministic replaces every sample by its mean
	Deterministic bool `json:"deterministic" yaml:"deterministic"`

	// Seed is the rngstream master seed; 0 leaves the package seed as it is
	Seed uint64 `json:"seed" yaml:"seed"`
}

// DefaultSimCfg returns the parameters of the reference network
func DefaultSimCfg() *SimCfg {
	return &SimCfg{
		Name:    "netqsim",
		Px:      StreamDesc{Interarrival: 5.0, Dist: "exp", Dst: Server1Name},
		Py:      StreamDesc{Interarrival: 10.0, Dist: "exp", Dst: Server2Name},
		Router:  NodeDesc{Mean: 1.0, Sigma: 0.6, Dist: "normal"},
		Server1: NodeDesc{Mean: 4.0, Sigma: 0.6, Dist: "normal"},
		Server2: NodeDesc{Mean: 7.0, Sigma: 0.6, Dist: "normal"},
	}
}

// Validate checks every parameter and reports all the problems found
func (cfg *SimCfg) Validate() error {
	errs := []error{}

	streams := map[string]StreamDesc{"px": cfg.Px, "py": cfg.Py}
	for _, label := range []string{"px", "py"} {
		sd := streams[label]
		if !(sd.Interarrival > 0.0) {
			errs = append(errs, fmt.Errorf("%s interarrival %g: %w", label, sd.Interarrival, ErrNonPositiveBound))
		}
		if _, err := interarrivalSampler(sd.Dist); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
		if sd.Dst != Server1Name && sd.Dst != Server2Name {
			errs = append(errs, fmt.Errorf("%s destination %q is not a server", label, sd.Dst))
		}
	}

	nodes := map[string]NodeDesc{"router": cfg.Router, "server1": cfg.Server1, "server2": cfg.Server2}
	for _, label := range []string{"router", "server1", "server2"} {
		nd := nodes[label]
		if !(nd.Mean > 0.0) {
			errs = append(errs, fmt.Errorf("%s mean service %g: %w", label, nd.Mean, ErrNonPositiveBound))
		}
		if nd.Sigma < 0.0 {
			errs = append(errs, fmt.Errorf("%s sigma %g is negative", label, nd.Sigma))
		}
		if _, err := samplerByName(nd.Dist); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}

	if cfg.Seed > MaxSeed {
		errs = append(errs, fmt.Errorf("seed %d exceeds %d", cfg.Seed, MaxSeed))
	}

	return ReportErrs(errs)
}

// WriteToFile stores the SimCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (cfg *SimCfg) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	switch pathExt {
	case ".yaml", ".YAML", ".yml":
		bytes, merr = yaml.Marshal(*cfg)
	case ".json", ".JSON":
		bytes, merr = json.MarshalIndent(*cfg, "", "\t")
	default:
		return fmt.Errorf("configuration file %s needs a .yaml or .json extension", filename)
	}
	if merr != nil {
		return merr
	}

	return os.WriteFile(filename, bytes, 0o644)
}

// ReadSimCfg deserializes a byte slice holding a representation of a SimCfg struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  Fields the representation leaves out keep their default values.
func ReadSimCfg(filename string, useYAML bool, dict []byte) (*SimCfg, error) {
	var err error

	// if the dict slice of bytes is empty we get them from the file whose name is an argument
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultSimCfg()

	if useYAML {
		err = yaml.Unmarshal(dict, cfg)
	} else {
		err = json.Unmarshal(dict, cfg)
	}

	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// StopMode selects which bound ends a run
type StopMode int

const (
	StopOnEither StopMode = iota // whichever of time or count is reached first
	StopOnTime
	StopOnCount
)

// StopCondition is the rule tested after every dispatched event
type StopCondition struct {
	Mode     StopMode
	EndTime  float64
	EndCount int
}

// CreateStopCondition builds the rule from the command line bounds.  timeSet
// and countSet tell whether each bound was given at all.  Giving both is an
// error; giving neither selects the defaults and stops on the first reached
func CreateStopCondition(endTime float64, timeSet bool, endCount int, countSet bool) (StopCondition, error) {
	switch {
	case timeSet && countSet:
		return StopCondition{}, ErrConflictingBounds
	case timeSet:
		if !(endTime > 0.0) {
			return StopCondition{}, fmt.Errorf("end time %g: %w", endTime, ErrNonPositiveBound)
		}
		return StopCondition{Mode: StopOnTime, EndTime: endTime}, nil
	case countSet:
		if endCount <= 0 {
			return StopCondition{}, fmt.Errorf("end packet count %d: %w", endCount, ErrNonPositiveBound)
		}
		return StopCondition{Mode: StopOnCount, EndCount: endCount}, nil
	}
	return StopCondition{Mode: StopOnEither, EndTime: DefaultEndTime, EndCount: DefaultEndCount}, nil
}

// Reached tests the rule against the clock and the number of packets S1 has served
func (sc StopCondition) Reached(now float64, s1Served int) bool {
	switch sc.Mode {
	case StopOnTime:
		return now >= sc.EndTime
	case StopOnCount:
		return s1Served == sc.EndCount
	}
	return now >= sc.EndTime || s1Served == sc.EndCount
}

// ReportErrs transforms a list of errors and transforms the non-nil ones into a single error
// with comma-separated report of all the constituent errors, and returns it.
func ReportErrs(errs []error) error {
	errMsg := make([]string, 0)
	for _, err := range errs {
		if err != nil {
			errMsg = append(errMsg, err.Error())
		}
	}
	if len(errMsg) == 0 {
		return nil
	}

	return errors.New(strings.Join(errMsg, ","))
}

// CheckOutputFiles probes the file system to ensure that the directory of
// every (non-empty) argument filename exists, so the files can be written
func CheckOutputFiles(names []string) (bool, error) {
	errs := make([]error, 0)

	for _, name := range names {
		if len(name) == 0 {
			continue
		}

		// split off the directory portion of the path
		directory, _ := filepath.Split(name)
		if len(directory) == 0 {
			continue
		}
		if _, err := os.Stat(directory); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return true, nil
	}
	return false, ReportErrs(errs)
}
