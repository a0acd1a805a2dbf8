package netqsim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCompletionAfterIdle(t *testing.T) {
	srv := CreateService()
	assert.Equal(t, Idle, srv.State())

	cmp := srv.RecordCompletion(5.0, 6.0)
	assert.Equal(t, Completion{Arrival: 5.0, Begin: 5.0, Service: 1.0, End: 6.0, Wait: 0.0, InSystem: 1.0, Idle: 5.0}, cmp)
	assert.Equal(t, 6.0, srv.LastServiceEnd())
	assert.Equal(t, 1, srv.TotalPackets())
	assert.Equal(t, cmp, srv.Last())
}

func TestRecordCompletionWhenSaturated(t *testing.T) {
	srv := CreateService()
	srv.RecordCompletion(10.0, 11.0)

	cmp := srv.RecordCompletion(10.0, 12.0)
	assert.Equal(t, Completion{Arrival: 10.0, Begin: 11.0, Service: 1.0, End: 12.0, Wait: 1.0, InSystem: 2.0, Idle: 0.0}, cmp)

	// arriving exactly at the previous completion counts as saturated
	cmp = srv.RecordCompletion(12.0, 16.0)
	assert.Equal(t, 12.0, cmp.Begin)
	assert.Zero(t, cmp.Wait)
	assert.Zero(t, cmp.Idle)

	assert.Equal(t, 3, srv.TotalPackets())
	assert.Equal(t, 6.0, srv.TotalServiceTime())
	assert.Equal(t, 2.0, srv.MeanServiceTime())
}

func TestRecordCompletionProperties(t *testing.T) {
	srv := CreateService()
	rng := rand.New(rand.NewSource(3))

	now, sum := 0.0, 0.0
	for i := 0; i < 1000; i++ {
		prevEnd := srv.LastServiceEnd()
		arrival := prevEnd + (rng.Float64()-0.5)*4.0
		if arrival < 0.0 {
			arrival = 0.0
		}
		begin := arrival
		if prevEnd > begin {
			begin = prevEnd
		}
		now = begin + rng.Float64()*3.0

		cmp := srv.RecordCompletion(arrival, now)
		require.GreaterOrEqual(t, cmp.Begin, cmp.Arrival)
		require.GreaterOrEqual(t, cmp.End, cmp.Begin)
		require.GreaterOrEqual(t, cmp.Wait, 0.0)
		require.GreaterOrEqual(t, cmp.Idle, 0.0)
		require.InDelta(t, cmp.Wait+cmp.Service, cmp.InSystem, 1e-9)
		require.True(t, cmp.Wait == 0.0 || cmp.Idle == 0.0)
		sum += cmp.Service
	}
	assert.Equal(t, 1000, srv.TotalPackets())
	assert.InDelta(t, sum/1000.0, srv.MeanServiceTime(), 1e-9)
	assert.Equal(t, now, srv.LastServiceEnd())
}

func TestMeanServiceTimeBeforeCompletion(t *testing.T) {
	srv := CreateService()
	assert.Zero(t, srv.MeanServiceTime())
	srv.SetState(Busy)
	assert.Equal(t, "BUSY", srv.State().String())
	assert.Equal(t, "IDLE", Idle.String())
}

func TestCreateNode(t *testing.T) {
	nd, err := createNode(Server1Name, Server1Departure, 4.0, 0.6, "normal", true)
	require.NoError(t, err)
	assert.Equal(t, 4.0, nd.serviceTime())

	nd, err = createNode(Server1Name, Server1Departure, 4.0, 0.6, "normal", false)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.GreaterOrEqual(t, nd.serviceTime(), 0.0)
	}

	_, err = createNode(Server2Name, Server2Departure, 7.0, 0.6, "gamma", false)
	assert.ErrorContains(t, err, "node S2")
}
