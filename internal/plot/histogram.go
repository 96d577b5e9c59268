package plot

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"armangle/internal/services"
)

// Options controls histogram rendering. Bins and BinWidth are mutually
// exclusive inputs; a positive BinWidth takes precedence.
type Options struct {
	Format   string
	Bins     int
	BinWidth float64
}

// ErrorHistogram renders a histogram of per-observation absolute errors for
// one measurement variant. The output format is carried by the file
// extension, which must match Options.Format.
func ErrorHistogram(path, variant string, errors []float64, opts Options) error {
	if len(errors) == 0 {
		return services.Wrap(services.ErrNotFound, "export", "render histogram",
			fmt.Sprintf("no qualifying observations for %s", variant), nil)
	}

	bins := opts.Bins
	if opts.BinWidth > 0 {
		bins = binsForWidth(errors, opts.BinWidth)
	}
	if bins <= 0 {
		bins = 20
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Absolute error distribution (%s)", variant)
	p.X.Label.Text = "absolute error (degrees)"
	p.Y.Label.Text = "observations"

	hist, err := plotter.NewHist(plotter.Values(errors), bins)
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "build histogram", variant, err)
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return services.Wrap(services.ErrTransient, "export", "save histogram", path, err)
	}
	return nil
}

func binsForWidth(values []float64, width float64) int {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	if span <= 0 {
		return 1
	}
	return int(math.Ceil(span / width))
}
