package testleads

// HTTP status code constants.
const (
	StatusOK = 200
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
)
