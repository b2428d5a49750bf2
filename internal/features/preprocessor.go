package features

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/i474232898/forecast-collector/internal/log"
	"github.com/i474232898/forecast-collector/internal/store"
	"github.com/i474232898/forecast-collector/internal/weather"
)

// Preprocessor derives features from a merged dataset, applies the fitted
// artifact and writes the matrix for each region. It runs as a weather.Sink.
type Preprocessor struct {
	artifactPath string
	output       store.PathFunc
}

// NewPreprocessor creates a Preprocessor reading the artifact at
// artifactPath and writing matrices to the files named by output.
func NewPreprocessor(artifactPath string, output store.PathFunc) *Preprocessor {
	return &Preprocessor{artifactPath: artifactPath, output: output}
}

func (p *Preprocessor) Name() string { return "features" }

func (p *Preprocessor) Consume(ctx context.Context, region string, dataset []weather.Entry) error {
	_, err := p.Run(ctx, region, dataset)
	return err
}

// Run transforms entries and writes the matrix. On failure it returns no
// matrix and nothing is written.
func (p *Preprocessor) Run(ctx context.Context, region string, entries []weather.Entry) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifact, err := LoadArtifact(p.artifactPath)
	if err != nil {
		return nil, err
	}

	m, err := artifact.Transform(Derive(entries))
	if err != nil {
		return nil, err
	}

	path := p.output(region)
	if err := store.WriteAtomic(path, func(w io.Writer) error {
		return WriteMatrix(w, m)
	}); err != nil {
		return nil, fmt.Errorf("write features: %w", err)
	}

	rows, cols := m.Dims()
	log.Infow("features written", "region", region, "path", path, "rows", rows, "columns", cols)
	return m, nil
}

// WriteMatrix writes m as CSV. The header holds the column positions and no
// index column is written.
func WriteMatrix(w io.Writer, m mat.Matrix) error {
	rows, cols := m.Dims()
	cw := csv.NewWriter(w)

	record := make([]string, cols)
	for j := range record {
		record[j] = strconv.Itoa(j)
	}
	if err := cw.Write(record); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
