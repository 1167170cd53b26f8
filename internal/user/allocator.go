package user

// NextID is the identifier allocation rule: 1 for an empty store, otherwise max+1.
func NextID(maxID int64, found bool) int64 {
	if !found {
		return 1
	}
	return maxID + 1
}

// maxAllocationAttempts bounds retries when a concurrent insert takes the same id.
const maxAllocationAttempts = 5
