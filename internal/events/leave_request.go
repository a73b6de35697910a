package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage marks a body that can never be processed, whatever
// the number of attempts.
var ErrMalformedMessage = errors.New("malformed message")

// LeaveRequestAdjudication asks the worker to auto-approve a short leave
// request. It travels on the main queue and, unchanged, on the DLQ.
type LeaveRequestAdjudication struct {
	IdempotencyKey string `json:"idempotencyKey"`
	LeaveID        string `json:"leaveId"`
}

func (m LeaveRequestAdjudication) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func DecodeLeaveRequestAdjudication(body []byte) (LeaveRequestAdjudication, error) {
	var m LeaveRequestAdjudication
	if err := json.Unmarshal(body, &m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.LeaveID == "" || m.IdempotencyKey == "" {
		return m, fmt.Errorf("%w: leaveId and idempotencyKey are required", ErrMalformedMessage)
	}
	return m, nil
}
