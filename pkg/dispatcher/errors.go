package dispatcher

import "errors"

var (
	// ErrInvalidPartition is returned by Partition.Subscribe when the
	// `partition` subscription option is missing or out of range.
	ErrInvalidPartition = errors.New("dispatcher: subscription missing a valid partition index")

	// ErrPartitionTaken is returned by Partition.Subscribe when another
	// subscriber already claimed the requested partition index.
	ErrPartitionTaken = errors.New("dispatcher: partition index already claimed")
)
