// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/reelcast/internal/models"
)

// Role identifies which partition of a dataset a record slice is.
type Role string

// Partition roles.
const (
	RoleTrain Role = "train"
	RoleTest  Role = "test"
	RoleFull  Role = "full"
)

// Partition is a record slice labelled with its origin.
type Partition struct {
	Dataset string
	Role    Role
	Records []models.EngineeredRecord
}

// Encoder fits imputation, scaling and encoding parameters. The only
// partition it accepts for fitting is the train partition of the primary
// dataset.
type Encoder struct {
	primary string
	now     func() time.Time
}

// NewEncoder creates an Encoder guarding fits to primaryDataset.
func NewEncoder(primaryDataset string) *Encoder {
	return &Encoder{primary: primaryDataset, now: time.Now}
}

// Fit computes parameters from p. Numeric columns get the median of their
// present values (0 when none are present) for imputation and the mean and
// population standard deviation of the imputed values; a zero deviation is
// stored as 1. Categorical vocabularies are the sorted distinct values plus
// models.MissingCategory. Binned features get quantile edges of their
// present values and a vocabulary of their fixed labels.
func (e *Encoder) Fit(p Partition) (*models.FitParameters, error) {
	if p.Dataset != e.primary || p.Role != RoleTrain {
		return nil, &LeakageGuardViolation{Dataset: p.Dataset, Role: p.Role}
	}
	if len(p.Records) == 0 {
		return nil, fmt.Errorf("fit %s: %w", p.Dataset, ErrEmptyPartition)
	}

	params := &models.FitParameters{
		FittedOn: fmt.Sprintf("%s/%s", p.Dataset, p.Role),
		FittedAt: e.now().UTC(),
		Rows:     len(p.Records),
	}

	for _, f := range numericFeatures {
		present := make([]float64, 0, len(p.Records))
		for i := range p.Records {
			if v, ok := f.value(&p.Records[i]); ok {
				present = append(present, v)
			}
		}
		median := Median(present)

		imputed := make([]float64, len(p.Records))
		for i := range p.Records {
			v, ok := f.value(&p.Records[i])
			if !ok {
				v = median
			}
			imputed[i] = v
		}
		mean, std := MeanStd(imputed)
		if std == 0 {
			std = 1
		}
		params.Scaling.Columns = append(params.Scaling.Columns, models.ScaleColumn{
			Name: f.name, Mean: mean, Std: std, Median: median,
		})
	}

	for _, f := range categoricalFeatures {
		distinct := map[string]struct{}{models.MissingCategory: {}}
		for i := range p.Records {
			if v := f.value(&p.Records[i]); v != "" {
				distinct[v] = struct{}{}
			}
		}
		labels := make([]string, 0, len(distinct))
		for v := range distinct {
			labels = append(labels, v)
		}
		sort.Strings(labels)

		codes := make(map[string]int, len(labels))
		for code, v := range labels {
			codes[v] = code
		}
		params.Encoding.Columns = append(params.Encoding.Columns, models.CategoryColumn{Name: f.name, Categories: codes})
	}

	for _, f := range binnedFeatures {
		present := make([]float64, 0, len(p.Records))
		for i := range p.Records {
			if v, ok := f.value(&p.Records[i]); ok {
				present = append(present, v)
			}
		}
		params.Binning.Columns = append(params.Binning.Columns, quantileBins(f.name, present, f.labels))
		params.Encoding.Columns = append(params.Encoding.Columns, labelCodes(f.name, f.labels))
	}

	return params, nil
}

// quantileBins cuts values into len(labels) equal-frequency bins. Repeated
// values may produce repeated edges; such bins stay empty.
func quantileBins(name string, values []float64, labels []string) models.BinColumn {
	edges := make([]float64, len(labels)-1)
	if len(values) > 0 {
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		for i := range edges {
			edges[i] = Quantile(sorted, float64(i+1)/float64(len(labels)))
		}
	}
	return models.BinColumn{Name: name, Edges: edges, Labels: append([]string(nil), labels...)}
}

// labelCodes is the vocabulary of a fixed label set plus models.MissingCategory.
func labelCodes(name string, labels []string) models.CategoryColumn {
	sorted := append([]string{models.MissingCategory}, labels...)
	sort.Strings(sorted)
	codes := make(map[string]int, len(sorted))
	for code, v := range sorted {
		codes[v] = code
	}
	return models.CategoryColumn{Name: name, Categories: codes}
}

// FitTransform fits parameters on p and transforms p with them.
func (e *Encoder) FitTransform(p Partition) ([]models.EncodedRecord, *models.FitParameters, error) {
	params, err := e.Fit(p)
	if err != nil {
		return nil, nil, err
	}
	encoded, err := Transform(p.Records, params)
	if err != nil {
		return nil, nil, err
	}
	return encoded, params, nil
}

// Transform encodes records with previously fitted parameters. params is
// only read, so concurrent transforms sharing one value are safe.
func Transform(records []models.EngineeredRecord, params *models.FitParameters) ([]models.EncodedRecord, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: no parameters", ErrIncompatibleParameters)
	}

	scales := make([]models.ScaleColumn, len(numericFeatures))
	for i, f := range numericFeatures {
		col, ok := params.Scaling.Column(f.name)
		if !ok {
			return nil, fmt.Errorf("%w: missing scaling for %s", ErrIncompatibleParameters, f.name)
		}
		scales[i] = col
	}
	vocabularies := make([]models.CategoryColumn, len(categoricalFeatures))
	for i, f := range categoricalFeatures {
		col, ok := params.Encoding.Column(f.name)
		if !ok {
			return nil, fmt.Errorf("%w: missing encoding for %s", ErrIncompatibleParameters, f.name)
		}
		vocabularies[i] = col
	}
	bins := make([]models.BinColumn, len(binnedFeatures))
	tiers := make([]models.CategoryColumn, len(binnedFeatures))
	for i, f := range binnedFeatures {
		b, ok := params.Binning.Column(f.name)
		if !ok || len(b.Labels) != len(b.Edges)+1 {
			return nil, fmt.Errorf("%w: missing bins for %s", ErrIncompatibleParameters, f.name)
		}
		col, ok := params.Encoding.Column(f.name)
		if !ok {
			return nil, fmt.Errorf("%w: missing encoding for %s", ErrIncompatibleParameters, f.name)
		}
		bins[i], tiers[i] = b, col
	}

	width := featureWidth()
	out := make([]models.EncodedRecord, len(records))
	for i := range records {
		r := &records[i]
		features := make([]float64, 0, width)
		for _, f := range binaryFeatures {
			features = append(features, boolToFloat(f.value(r)))
		}
		for j, f := range numericFeatures {
			v, ok := f.value(r)
			if !ok {
				v = scales[j].Median
			}
			features = append(features, (v-scales[j].Mean)/scales[j].Std)
		}
		for j, f := range categoricalFeatures {
			features = append(features, float64(vocabularies[j].Code(f.value(r))))
		}
		for j, f := range binnedFeatures {
			label := ""
			if v, ok := f.value(r); ok {
				label = bins[j].Label(v)
			}
			features = append(features, float64(tiers[j].Code(label)))
		}
		out[i] = models.EncodedRecord{
			ID:       r.ID,
			Features: features,
			Target:   r.VoteAverage,
			IsRated:  r.IsRated,
			Params:   params,
		}
	}
	return out, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
