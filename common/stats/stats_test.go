package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecisionChange(t *testing.T) {
	stat := DefaultStatsReceiver().(*defaultStatsReceiver)
	assert.Equal(t, time.Millisecond, stat.precision)

	statp := stat.Precision(time.Microsecond).(*defaultStatsReceiver)
	assert.Equal(t, time.Millisecond, stat.precision, "original receiver must keep its precision")
	assert.Equal(t, time.Microsecond, statp.precision)

	assert.Equal(t, time.Duration(1), stat.Precision(0).(*defaultStatsReceiver).precision)
}

func TestScopeChange(t *testing.T) {
	stat := DefaultStatsReceiver().(*defaultStatsReceiver)
	require.Empty(t, stat.scope)

	statp := stat.Scope("a/b", "c").(*defaultStatsReceiver)
	assert.Empty(t, stat.scope)
	assert.Equal(t, []string{"a_SLASH_b", "c"}, statp.scope)
	assert.Equal(t, "a_SLASH_b/c/d", statp.scopedName("d"))

	// Sibling scopes must not share a backing array.
	x := statp.Scope("x").(*defaultStatsReceiver)
	y := statp.Scope("y").(*defaultStatsReceiver)
	assert.Equal(t, "a_SLASH_b/c/x", x.scopedName())
	assert.Equal(t, "a_SLASH_b/c/y", y.scopedName())
}

func TestSameNameSameInstrument(t *testing.T) {
	stat := DefaultStatsReceiver().Scope("api", "login")
	stat.Counter(APIRequestCounter).Inc(1)
	stat.Counter(APIRequestCounter).Inc(2)
	assert.EqualValues(t, 3, stat.Counter(APIRequestCounter).Count())

	stat.Remove(APIRequestCounter)
	assert.EqualValues(t, 0, stat.Counter(APIRequestCounter).Count())
}

func TestMarshal(t *testing.T) {
	defer func() { Now = time.Now }()
	base := time.Unix(0, 0)

	reg := NewFinagleStatsRegistry()
	reg.GetOrRegister("counter", NewCounter()).(Counter).Inc(1)
	reg.GetOrRegister("gauge", NewGauge()).(Gauge).Update(2)

	lat := reg.GetOrRegister("latency", NewLatency()).(Latency)
	Now = func() time.Time { return base }
	timer := lat.Time()
	Now = func() time.Time { return base.Add(5 * time.Nanosecond) }
	timer.Stop()
	Now = func() time.Time { return base }
	timer = lat.Time()
	Now = func() time.Time { return base.Add(10 * time.Nanosecond) }
	timer.Stop()

	bytes, err := reg.(MarshalerPretty).MarshalJSONPretty()
	require.NoError(t, err)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(bytes, &got))
	assert.Equal(t, 1.0, got["counter"])
	assert.Equal(t, 2.0, got["gauge"])
	assert.Equal(t, 7.5, got["latency.avg"])
	assert.Equal(t, 2.0, got["latency.count"])
	assert.Equal(t, 10.0, got["latency.max"])
	assert.Equal(t, 5.0, got["latency.min"])
	assert.Equal(t, 15.0, got["latency.sum"])
	assert.Contains(t, got, "latency.p99")
}

func TestNilReceiverRendersNothing(t *testing.T) {
	stat := NilStatsReceiver()
	stat.Counter("x").Inc(1)
	stat.Latency("y").Time().Stop()
	assert.Empty(t, stat.Render(false))
}

func TestRenderDefault(t *testing.T) {
	stat := DefaultStatsReceiver()
	stat.Scope("account").Gauge(AccountLiveSessionsGauge).Update(3)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(stat.Render(true), &got))
	assert.Equal(t, 3.0, got["account/"+AccountLiveSessionsGauge])
}
