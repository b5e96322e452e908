package ingestion

import "errors"

var (
	// ErrPublisherRequired is returned when a publisher is not provided.
	ErrPublisherRequired = errors.New("publisher required")

	// ErrBlobStoreRequired is returned when object notifications arrive without a blob store.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrUnknownPartitionBy is returned for a partition strategy other than record or source.
	ErrUnknownPartitionBy = errors.New("unknown partition strategy")

	// ErrEmptyNotification is returned when a notification carries no records.
	ErrEmptyNotification = errors.New("notification has no records")
)
