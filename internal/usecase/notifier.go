package usecase

import (
	"context"
)

// SubmissionNotice is published once per member operator after a stored
// submission.
type SubmissionNotice struct {
	OperatorCallsign string `json:"operatorCallsign"`
	StationCallsign  string `json:"stationCallsign"`
	Contest          string `json:"contest"`
	Year             int    `json:"year"`
	ClaimedScore     int64  `json:"claimedScore"`
	Status           string `json:"status"`
	SubmissionID     string `json:"submissionId"`
}

type SubmissionNotifier interface {
	NotifySubmission(ctx context.Context, notice SubmissionNotice) error
}

type noopSubmissionNotifier struct{}

func (noopSubmissionNotifier) NotifySubmission(_ context.Context, _ SubmissionNotice) error {
	return nil
}

func NewNoopSubmissionNotifier() SubmissionNotifier {
	return noopSubmissionNotifier{}
}
