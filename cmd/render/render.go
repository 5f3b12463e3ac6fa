package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"pipelined.dev/render"
	"pipelined.dev/render/catalog"
	"pipelined.dev/render/log"
	"pipelined.dev/render/metric"
	"pipelined.dev/render/signal"
	"pipelined.dev/render/state"
	"pipelined.dev/render/wav"
)

type renderCommand struct {
	graph    string
	out      string
	state    string
	bitDepth int
	duration float64
	beats    bool
	metrics  bool
	stems    stringList
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render graph description to wav file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.graph, "graph", "", "yaml graph description (required)")
	fs.StringVar(&cmd.out, "out", "", "output wav file (required)")
	fs.StringVar(&cmd.state, "state", "", "file to save processors state")
	fs.IntVar(&cmd.bitDepth, "bit-depth", 16, "output bit depth: 16, 24 or 32")
	fs.Float64Var(&cmd.duration, "duration", 0, "render duration, overrides graph duration")
	fs.BoolVar(&cmd.beats, "beats", false, "duration is in beats")
	fs.BoolVar(&cmd.metrics, "metrics", false, "print processing metrics")
	fs.Var(&cmd.stems, "stem", "comma separated processors which recorded output is saved next to the output file")
}

func (cmd *renderCommand) Validate() error {
	var missing []string
	if cmd.graph == "" {
		missing = append(missing, "Missing -graph required flag")
	}
	if cmd.out == "" {
		missing = append(missing, "Missing -out required flag")
	}
	if len(missing) > 0 {
		return errors.New(strings.Join(missing, "\n"))
	}
	return nil
}

func (cmd *renderCommand) Run(w io.Writer) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	g, err := catalog.Load(cmd.graph)
	if err != nil {
		return err
	}
	duration, beats := g.Duration, g.Beats
	if cmd.duration > 0 {
		duration, beats = cmd.duration, cmd.beats
	}
	b := catalog.Builder{Dir: filepath.Dir(cmd.graph)}
	e, err := g.Engine(&b, render.WithLogger(log.GetLogger()))
	if err != nil {
		return err
	}
	if err := e.Render(duration, beats); err != nil {
		return err
	}

	bitDepth := signal.BitDepth(cmd.bitDepth)
	if err := wav.Save(cmd.out, signal.Float32(e.Audio()).AsFloat64(), e.SampleRate(), bitDepth); err != nil {
		return err
	}
	fmt.Fprintf(w, "Saved %s\n", cmd.out)
	for _, name := range cmd.stems {
		audio, err := e.AudioFor(name)
		if err != nil {
			return err
		}
		path := stemPath(cmd.out, name)
		if err := wav.Save(path, signal.Float32(audio).AsFloat64(), e.SampleRate(), bitDepth); err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved %s\n", path)
	}

	if cmd.state != "" {
		records, err := e.Snapshot()
		if err != nil {
			return err
		}
		if err := state.Save(cmd.state, records...); err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved %d records to %s\n", len(records), cmd.state)
	}
	if cmd.metrics {
		printMetrics(w, metric.GetAll())
	}
	return nil
}

// stemPath returns path of the processor output: out.wav becomes
// out.name.wav.
func stemPath(out, name string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "." + name + ext
}

func printMetrics(w io.Writer, all map[string]map[string]string) {
	types := make([]string, 0, len(all))
	for t := range all {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "%s:\n", t)
		counters := make([]string, 0, len(all[t]))
		for c := range all[t] {
			counters = append(counters, c)
		}
		sort.Strings(counters)
		for _, c := range counters {
			fmt.Fprintf(w, "\t%s: %s\n", c, all[t][c])
		}
	}
}
