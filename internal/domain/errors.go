package domain

import "errors"

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrNoComments      = errors.New("no comments match the selection")
	ErrNoWords         = errors.New("no words found for the selection")
	ErrEmptyInput      = errors.New("input contains no data")
	ErrMissingColumns  = errors.New("input has neither a text nor a segmented words column")
	ErrUnknownLabel    = errors.New("unknown sentiment label")
	ErrPageOutOfRange  = errors.New("page out of range")
	ErrInvalidDataset  = errors.New("invalid dataset")
)
