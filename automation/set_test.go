package automation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/automation"
	"pipelined.dev/render/fault"
	"pipelined.dev/render/transport"
)

func TestSet(t *testing.T) {
	s := automation.NewSet()
	s.Add("gain", 1)
	s.Add("freq", 440)
	assert.Equal(t, []string{"gain", "freq"}, s.Names())

	require.NoError(t, s.SetAutomation("gain", []float32{0, 0.5}, 0))
	values, err := s.Automation("gain")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.5}, values)

	_, err = s.Automation("missing")
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetValue("missing", 1), fault.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetAutomation("freq", []float32{1}, -2), fault.ErrInvalidArgument)

	assert.Equal(t, float32(0), s.Value("missing", transport.Start(120)))
	assert.Equal(t, float32(440), s.Value("freq", transport.Start(120)))
}

func TestSetRecord(t *testing.T) {
	s := automation.NewSet()
	s.Add("gain", 0)
	require.NoError(t, s.SetAutomation("gain", []float32{0, 1, 2, 3, 4, 5}, 0))

	ph := transport.Start(120)
	s.Record(ph, 3, 44100)
	s.Record(ph.Advance(3, 44100), 3, 44100)
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5}, s.Recorded()["gain"])

	s.ClearRecorded()
	assert.Empty(t, s.Recorded())
}
