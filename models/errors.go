package models

import (
	"errors"
)

var (
	ErrNoTrainingData    = errors.New("no training data")
	ErrTargetLenMismatch = errors.New("target length does not match training data length")
	ErrDegenerateFit     = errors.New("regression fit produced non-finite coefficients")
)
