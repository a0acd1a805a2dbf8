package netqsim

// random.go holds the RandomStream used by arrival streams and nodes to
// draw interarrival and service times

import (
	"fmt"
	"math"

	"github.com/iti/rngstream"
)

// uniformSource is satisfied by *rngstream.RngStream, and by any other
// generator of U(0,1) samples a test wants to plug in
type uniformSource interface {
	RandU01() float64
}

// RandomStream turns a U(0,1) source into the samples the model needs.
// When deterministic is set every sampler returns its mean and the
// underlying source is never advanced
type RandomStream struct {
	name          string
	deterministic bool
	src           uniformSource

	// normals are produced two at a time, the second one is held here
	haveNormal bool
	saveNormal float64
}

// CreateRandomStream is a constructor.  Like the devices of a network each
// owner of a RandomStream gets its own rngstream, identified by name
func CreateRandomStream(name string, deterministic bool) *RandomStream {
	return createRandomStreamFrom(name, deterministic, rngstream.New(name))
}

// createRandomStreamFrom builds a RandomStream around an arbitrary uniform source
func createRandomStreamFrom(name string, deterministic bool, src uniformSource) *RandomStream {
	rs := new(RandomStream)
	rs.name = name
	rs.deterministic = deterministic
	rs.src = src
	return rs
}

// Name returns the identifier the stream was created with
func (rs *RandomStream) Name() string {
	return rs.name
}

// Deterministic reports whether sampling has been switched off
func (rs *RandomStream) Deterministic() bool {
	return rs.deterministic
}

// Uniform returns the next U[0,1) sample, or 0.5 in deterministic mode
func (rs *RandomStream) Uniform() float64 {
	if rs.deterministic {
		return 0.5
	}
	return rs.src.RandU01()
}

// Exponential returns an exponentially distributed sample with the given mean
func (rs *RandomStream) Exponential(mean float64) float64 {
	if rs.deterministic {
		return mean
	}
	return -mean * math.Log(rs.Uniform())
}

// Normal returns a normally distributed sample.  One pair of uniforms yields
// two independent standard normals (Box-Muller); the second is cached and
// handed out on the following call
func (rs *RandomStream) Normal(mean, sigma float64) float64 {
	if rs.deterministic {
		return mean
	}

	var z float64
	if !rs.haveNormal {
		r1 := rs.Uniform()
		r2 := rs.Uniform()
		radius := math.Sqrt(-2.0 * math.Log(r1))
		z = radius * math.Cos(2.0*math.Pi*r2)
		rs.saveNormal = radius * math.Sin(2.0*math.Pi*r2)
		rs.haveNormal = true
	} else {
		z = rs.saveNormal
		rs.haveNormal = false
	}
	return z*sigma + mean
}

// PositiveNormal resamples Normal until it yields a non-negative value
func (rs *RandomStream) PositiveNormal(mean, sigma float64) float64 {
	for {
		v := rs.Normal(mean, sigma)
		if v >= 0.0 {
			return v
		}
	}
}

// A sampler draws one value from rs using the parameters (mean, and for
// some distributions a spread) held in params
type sampler func(rs *RandomStream, params []float64) float64

// sampleExp has the signature of a sampler, drawing an exponential
func sampleExp(rs *RandomStream, params []float64) float64 {
	return rs.Exponential(params[0])
}

// samplePosNormal has the signature of a sampler, drawing a non-negative normal
func samplePosNormal(rs *RandomStream, params []float64) float64 {
	return rs.PositiveNormal(params[0], params[1])
}

// sampleConst has the signature of a sampler, always giving back the mean
func sampleConst(rs *RandomStream, params []float64) float64 {
	return params[0]
}

// interarrivalSampler is samplerByName restricted to the distributions
// an input stream may use, which take only a mean
func interarrivalSampler(dist string) (sampler, error) {
	switch dist {
	case "exponential", "exp", "expon", "constant", "const":
		return samplerByName(dist)
	}
	return nil, fmt.Errorf("unknown interarrival distribution %q", dist)
}

// samplerByName maps the distribution names accepted in a SimCfg to samplers
func samplerByName(dist string) (sampler, error) {
	switch dist {
	case "exponential", "exp", "expon":
		return sampleExp, nil
	case "normal", "norm", "posnormal":
		return samplePosNormal, nil
	case "constant", "const":
		return sampleConst, nil
	}
	return nil, fmt.Errorf("unknown distribution %q", dist)
}
