package domain

import "errors"

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidK          = errors.New("k must be positive")
	ErrNoDocuments       = errors.New("no input documents found")
	ErrEmptyCorpus       = errors.New("no tokens found in corpus")
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrUnknownBackend    = errors.New("unknown index backend")
	ErrProviderMismatch  = errors.New("provider returned wrong number of vectors")
)
