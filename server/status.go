package server

// Prediction refresh lifecycle for a property. Workers claim rows in "good"
// or "stale" and flip them to "pending" until the refresh lands.
const PredictionStatusGood = "good"
const PredictionStatusPending = "pending"
const PredictionStatusStale = "stale"

func getValidStatuses() []string {
	return []string{
		PredictionStatusGood,
		PredictionStatusPending,
		PredictionStatusStale,
	}
}

func isValidStatus(v string) bool {
	for _, s := range getValidStatuses() {
		if v == s {
			return true
		}
	}
	return false
}
