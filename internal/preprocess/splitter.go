// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/reelcast/internal/config"
)

// Temporal is a record that can be ordered chronologically.
type Temporal interface {
	ReleaseYearKey() int
	RecordID() int64
}

// CutoffPolicy selects the test partition. A positive YearThreshold puts
// every record released after that year into test; otherwise the trailing
// TestFraction of the ordered records is test.
type CutoffPolicy struct {
	TestFraction  float64
	YearThreshold int
}

// PolicyFromConfig builds the cutoff policy of cfg.
func PolicyFromConfig(cfg config.SplitConfig) CutoffPolicy {
	return CutoffPolicy{TestFraction: cfg.TestFraction, YearThreshold: cfg.YearThreshold}
}

func (p CutoffPolicy) String() string {
	if p.YearThreshold > 0 {
		return fmt.Sprintf("year<=%d", p.YearThreshold)
	}
	return fmt.Sprintf("fraction=%.2f", p.TestFraction)
}

// Split orders records by release year, ties by id, and cuts them so that
// every train release year is <= every test release year. The input slice is
// not modified. Either partition being empty is ErrEmptyPartition.
func Split[T Temporal](records []T, policy CutoffPolicy) (train, test []T, err error) {
	ordered := append([]T(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		yi, yj := ordered[i].ReleaseYearKey(), ordered[j].ReleaseYearKey()
		if yi != yj {
			return yi < yj
		}
		return ordered[i].RecordID() < ordered[j].RecordID()
	})

	var cut int
	if policy.YearThreshold > 0 {
		cut = sort.Search(len(ordered), func(i int) bool {
			return ordered[i].ReleaseYearKey() > policy.YearThreshold
		})
	} else {
		nTest := int(math.Ceil(float64(len(ordered))*policy.TestFraction - 1e-9))
		cut = len(ordered) - nTest
	}

	train, test = ordered[:cut], ordered[cut:]
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("split %s: %w: %d train, %d test", policy, ErrEmptyPartition, len(train), len(test))
	}
	return train, test, nil
}
