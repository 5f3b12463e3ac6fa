// Package metric publishes expvar counters of processors. Counters are
// aggregated per processor type.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/render/signal"
)

const processorsLabel = "render.processors"

const (
	// MessageCounter measures number of processed blocks.
	MessageCounter = "Messages"
	// SampleCounter measures number of samples.
	SampleCounter = "Samples"
	// LatencyCounter measures time spent in the last processing call.
	LatencyCounter = "Latency"
	// DurationCounter counts duration of rendered signal.
	DurationCounter = "Duration"
	// ComponentCounter counts number of metered processors.
	ComponentCounter = "Components"
)

var (
	processors = registry{
		m: make(map[string]counters),
	}

	names = []string{
		MessageCounter,
		SampleCounter,
		LatencyCounter,
		DurationCounter,
		ComponentCounter,
	}
)

// Get returns counter values for type of provided processor.
func Get(processor interface{}) map[string]string {
	return values(typeOf(processor))
}

// GetAll returns counters for all metered processor types.
func GetAll() map[string]map[string]string {
	processors.Lock()
	defer processors.Unlock()
	m := make(map[string]map[string]string, len(processors.m))
	for typ := range processors.m {
		m[typ] = values(typ)
	}
	return m
}

func values(typ string) map[string]string {
	m := make(map[string]string)
	for _, name := range names {
		if v := expvar.Get(key(typ, name)); v != nil {
			m[name] = v.String()
		}
	}
	return m
}

// ResetFunc returns new MeasureFunc. It postpones capture until render
// actually starts.
type ResetFunc func() MeasureFunc

// MeasureFunc captures counters when block is processed. It must be
// called right after processing call returns.
type MeasureFunc func(started time.Time, blockSize int64)

// Meter registers processor and returns closure to capture its counters.
func Meter(processor interface{}, sampleRate float64) ResetFunc {
	c := processors.get(typeOf(processor))
	c.components.Add(1)
	return func() MeasureFunc {
		var (
			blockSize     int64
			blockDuration time.Duration
		)
		return func(started time.Time, s int64) {
			c.latency.set(time.Since(started))
			c.messages.Add(1)
			c.samples.Add(s)
			// duration only changes with block size.
			if blockSize != s {
				blockSize = s
				blockDuration = signal.DurationOf(sampleRate, s)
			}
			c.duration.add(blockDuration)
		}
	}
}

type registry struct {
	sync.Mutex
	m map[string]counters
}

func (r *registry) get(typ string) counters {
	r.Lock()
	defer r.Unlock()
	if c, ok := r.m[typ]; ok {
		return c
	}
	c := newCounters(typ)
	r.m[typ] = c
	return c
}

type counters struct {
	components *expvar.Int
	messages   *expvar.Int
	samples    *expvar.Int
	latency    *duration
	duration   *duration
}

func newCounters(typ string) counters {
	c := counters{
		components: expvar.NewInt(key(typ, ComponentCounter)),
		messages:   expvar.NewInt(key(typ, MessageCounter)),
		samples:    expvar.NewInt(key(typ, SampleCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(typ, LatencyCounter), c.latency)
	expvar.Publish(key(typ, DurationCounter), c.duration)
	return c
}

func key(typ, counter string) string {
	return fmt.Sprintf("%s.%s.%s", processorsLabel, typ, counter)
}

func typeOf(processor interface{}) string {
	rv := reflect.ValueOf(processor)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration formats time.Duration values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
