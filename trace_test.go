package netqsim

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/iti/evt/vrtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTraceLineFormat(t *testing.T) {
	var out bytes.Buffer
	tm := CreateTraceManager("fmt", false, &out)

	cmp := Completion{Arrival: 10.0, Begin: 11.0, Service: 1.0, End: 12.0, Wait: 1.0, InSystem: 2.0, Idle: 0.0}
	st := tm.AddTrace(RouterName, 3, StreamPx, cmp)

	assert.Equal(t, "R,3,Px,10,11,1,12,1,2,0", st.Line())
	assert.Equal(t, TraceHeader+"\nR,3,Px,10,11,1,12,1,2,0\n", out.String())
	assert.Equal(t, 1, tm.Len())
	assert.Empty(t, tm.Traces, "inactive manager keeps no records")
	assert.NoError(t, tm.Err())

	st = tm.AddTrace(Server2Name, 4, StreamPy, Completion{Arrival: 0.25, Begin: 0.25, Service: 6.5, End: 6.75, InSystem: 6.5, Idle: 0.25})
	assert.Equal(t, "S2,4,Py,0.25,0.25,6.5,6.75,0,6.5,0.25", st.Line())
}

func TestTraceRecordsCarryTimeStamps(t *testing.T) {
	tm := CreateTraceManager("stamps", true, nil)

	tm.AddTrace(RouterName, 1, StreamPx, Completion{Arrival: 5.0, Begin: 5.0, Service: 1.0, End: 6.0, InSystem: 1.0, Idle: 5.0})
	tm.AddTrace(Server1Name, 1, StreamPx, Completion{Arrival: 6.0, Begin: 6.0, Service: 4.0, End: 10.0, InSystem: 4.0, Idle: 6.0})
	tm.AddTrace(RouterName, 2, StreamPy, Completion{Arrival: 10.0, Begin: 10.0, Service: 1.0, End: 11.0, InSystem: 1.0, Idle: 4.0})

	require.Len(t, tm.Traces, 3)
	for idx, st := range tm.Traces {
		assert.Equal(t, int64(idx+1), st.Priority)
		assert.InDelta(t, st.End, st.Time, 1e-6)
		assert.Equal(t, vrtime.SecondsToTicks(st.End), st.Ticks)
	}
	assert.Greater(t, tm.Traces[1].Ticks, tm.Traces[0].Ticks)

	rtr := tm.NodeTraces(RouterName)
	require.Len(t, rtr, 2)
	assert.Equal(t, "Py", rtr[1].Stream)
	assert.Empty(t, tm.NodeTraces(Server2Name))
}

func TestTraceWriteToFile(t *testing.T) {
	dir := t.TempDir()

	idle := CreateTraceManager("idle", false, nil)
	assert.NoError(t, idle.WriteToFile(filepath.Join(dir, "idle.yaml")))
	_, err := os.Stat(filepath.Join(dir, "idle.yaml"))
	assert.True(t, os.IsNotExist(err))

	tm := CreateTraceManager("dump", true, nil)
	tm.AddTrace(Server1Name, 2, StreamPx, Completion{Arrival: 12.0, Begin: 12.0, Service: 4.0, End: 16.0, InSystem: 4.0, Idle: 2.0})

	yamlFile := filepath.Join(dir, "trace.yaml")
	require.NoError(t, tm.WriteToFile(yamlFile))
	data, err := os.ReadFile(yamlFile)
	require.NoError(t, err)

	var got TraceManager
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "dump", got.ExpName)
	require.Len(t, got.Traces, 1)
	assert.Equal(t, tm.Traces[0], got.Traces[0])

	require.NoError(t, tm.WriteToFile(filepath.Join(dir, "trace.json")))
	assert.Error(t, tm.WriteToFile(filepath.Join(dir, "trace.csv")))
}
