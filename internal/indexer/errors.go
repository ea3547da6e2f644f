package indexer

import "errors"

var (
	ErrNoSuccessfulBatches = errors.New("no batches were stored successfully")
	ErrRunInProgress       = errors.New("ingestion already in progress")
)
