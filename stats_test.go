package netqsim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterCompletionUpdatesMeans(t *testing.T) {
	st := CreateStats()

	st.routerCompletion(&Packet{Number: 1, Stream: StreamPx, EntryTime: 4.0}, 5.0)
	st.routerCompletion(&Packet{Number: 1, Stream: StreamPy, EntryTime: 7.0}, 8.5)
	st.routerCompletion(&Packet{Number: 2, Stream: StreamPx, EntryTime: 10.0}, 11.0)

	assert.Equal(t, 3, st.TotalArrivals())
	assert.Equal(t, 3.5, st.TotalWaitingTime())
	assert.Equal(t, 2, st.ServedByRouter(StreamPx))
	assert.Equal(t, 1, st.ServedByRouter(StreamPy))

	// the mean of entry gaps is the latest entry time over the count
	assert.InDelta(t, 10.0/2.0, st.MeanInterarrival(StreamPx), 1e-12)
	assert.InDelta(t, 7.0, st.MeanInterarrival(StreamPy), 1e-12)
}

func TestUnknownStreamReadsAsZero(t *testing.T) {
	st := CreateStats()

	assert.Zero(t, st.MeanInterarrival("Pz"))
	assert.Zero(t, st.ServedByRouter("Pz"))
	assert.Len(t, st.streams, 2)
	assert.NotContains(t, st.streams, StreamID("Pz"))
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)

	mean, std = meanStd([]float64{3.0})
	assert.Equal(t, 3.0, mean)
	assert.Zero(t, std)

	mean, std = meanStd([]float64{2.0, 4.0, 4.0, 4.0, 5.0, 5.0, 7.0, 9.0})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.138089935299395, std, 1e-12)
}

func TestReport(t *testing.T) {
	sim, _ := runDeterministic(t, StopCondition{Mode: StopOnCount, EndCount: 3}, nil)

	var rpt bytes.Buffer
	require.NoError(t, sim.Report(&rpt, 0))

	expected := "Performance metrics for the simulation:\n" + ruler + "\n\n" +
		"Total simulated time = 20 sec\n" +
		"Mean interarrival time for Px = 5 sec\n" +
		"Mean interarrival time for Py = 10 sec\n" +
		"Mean service time for R = 1 sec\n" +
		"Total Px served by S1 = 3\n" +
		"Mean service time for S1 = 4 sec\n" +
		"Total Py served by S2 = 1\n" +
		"Mean service time for S2 = 7 sec\n\n"
	assert.Equal(t, expected, rpt.String())
}

func TestVerboseReport(t *testing.T) {
	sim, _ := runDeterministic(t, StopCondition{Mode: StopOnCount, EndCount: 3}, nil)

	var rpt bytes.Buffer
	require.NoError(t, sim.Report(&rpt, 2))
	text := rpt.String()

	assert.Contains(t, text, "Total Px served by R = 3, Total Py served by R = 1\n")
	assert.Contains(t, text, "S1 (Server 1):\n")
	assert.Contains(t, text, "Total waiting time at R = 5 sec\n")
	assert.Contains(t, text, "R: wait 0.25 ")
	assert.Contains(t, text, "S2: wait 0 (sd 0) sec, in system 7 (sd 0) sec, queue empty 13 sec, max queue 1, utilization 0.35\n")
}
