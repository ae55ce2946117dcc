// Package report renders simulation results as CSV for the external
// plotting and scenario-comparison layers. It consumes only the engine's
// result types and never reaches into engine internals.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/epidemic-sim/epidemic-sim/sim"
)

// ScenarioSeries pairs an aggregated series with its scenario label for
// stacked comparisons.
type ScenarioSeries struct {
	Label      string
	Aggregated *sim.AggregatedResult
}

var compartmentHeader = []string{"S", "E", "I", "Q", "H", "R", "F"}

// WriteAggregate writes one scenario's per-timestep aggregate table. The
// hospital capacity at day zero is echoed in a leading comment line so the
// plotting layer can draw its threshold annotation without re-parsing the
// scenario file.
func WriteAggregate(w io.Writer, label string, agg *sim.AggregatedResult, hospitalCapacity float64) error {
	if _, err := fmt.Fprintf(w, "# scenario=%s statistic=%s replicates=%d hospital_capacity=%g\n",
		label, agg.Statistic, agg.Replicates, hospitalCapacity); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"t"}, compartmentHeader...)); err != nil {
		return err
	}
	row := make([]string, 1+sim.NumCompartments)
	for t := range agg.Series {
		row[0] = strconv.Itoa(t)
		for c := 0; c < sim.NumCompartments; c++ {
			row[1+c] = strconv.FormatFloat(agg.Series[t][c], 'f', 3, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComparison stacks several scenarios into one long-format table:
// scenario label, timestep, compartment, value. The scenario-comparison
// layer pivots this directly into faceted charts.
func WriteComparison(w io.Writer, series []ScenarioSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"scenario", "t", "compartment", "value"}); err != nil {
		return err
	}
	for _, s := range series {
		for t := range s.Aggregated.Series {
			for c := sim.Susceptible; c <= sim.Fatal; c++ {
				err := cw.Write([]string{
					s.Label,
					strconv.Itoa(t),
					c.String(),
					strconv.FormatFloat(s.Aggregated.Value(t, c), 'f', 3, 64),
				})
				if err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRuns dumps every retained replicate series in long format, for
// consumers that need variance information beyond the aggregate.
func WriteRuns(w io.Writer, runs []*sim.RunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"replicate", "run_id", "t"}, compartmentHeader...)); err != nil {
		return err
	}
	for _, run := range runs {
		for t, counts := range run.Series {
			row := []string{strconv.Itoa(run.Replicate), run.ID, strconv.Itoa(t)}
			for c := sim.Susceptible; c <= sim.Fatal; c++ {
				row = append(row, strconv.FormatInt(counts.Get(c), 10))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveAggregate writes the aggregate table to a file path.
func SaveAggregate(path, label string, agg *sim.AggregatedResult, hospitalCapacity float64) error {
	return saveTo(path, func(w io.Writer) error {
		return WriteAggregate(w, label, agg, hospitalCapacity)
	})
}

// SaveComparison writes the stacked comparison table to a file path.
func SaveComparison(path string, series []ScenarioSeries) error {
	return saveTo(path, func(w io.Writer) error {
		return WriteComparison(w, series)
	})
}

// SaveRuns writes the per-replicate dump to a file path.
func SaveRuns(path string, runs []*sim.RunResult) error {
	return saveTo(path, func(w io.Writer) error {
		return WriteRuns(w, runs)
	})
}

func saveTo(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logrus.Warnf("closing %s: %v", path, closeErr)
		}
	}()
	w := bufio.NewWriter(file)
	if err := write(w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	logrus.Debugf("wrote %s", path)
	return nil
}
