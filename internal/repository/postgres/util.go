package postgres

import (
	"errors"
	"math"
)

var ErrNotFound = errors.New("not found")

func round2(v float64) float64 { return math.Round(v*100) / 100 }
