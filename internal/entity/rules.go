package entity

// PriorityForScore ranks a queue entry by how far its cross-reference
// score is from certainty.
func PriorityForScore(score int) RequestPriority {
	switch {
	case score < 80:
		return PriorityHigh
	case score < 90:
		return PriorityMedium
	}
	return PriorityLow
}

// StatusForRequest is the verification status a queue decision implies.
func StatusForRequest(s RequestStatus) VerificationStatus {
	switch s {
	case RequestApproved:
		return VerificationVerified
	case RequestRejected:
		return VerificationRejected
	case RequestInReview:
		return VerificationProcessing
	}
	return VerificationPending
}
