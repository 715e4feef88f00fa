package models

import (
	"time"
)

// Outcome tells apart the ways a verdict can be reached.
type Outcome string

const (
	OutcomeAccepted          Outcome = "accepted"
	OutcomePolicyRejection   Outcome = "policy_rejection"
	OutcomeMalformedResponse Outcome = "malformed_response"
	OutcomeTransportFailure  Outcome = "transport_failure"
)

// Reasons and suggestions used when the oracle could not classify the message.
const (
	MalformedReason     = "AI response error."
	MalformedSuggestion = "Try rewording your message."
	TransportReason     = "Error processing message evaluation."
	TransportSuggestion = "AI evaluation failed, please check."
)

// Input message
type ModerationRequest struct {
	RequestID string `json:"request_id,omitempty" jsonschema:"optional caller supplied identifier"`
	Text      string `json:"text" jsonschema:"the candidate message to moderate"`
}

// ModerationVerdict is the gate's decision. Reason and Suggestion are only
// set when the message was not accepted.
type ModerationVerdict struct {
	RequestID    string        `json:"request_id,omitempty"`
	Accepted     bool          `json:"accepted"`
	OriginalText string        `json:"original_text"`
	Reason       string        `json:"reason,omitempty"`
	Suggestion   string        `json:"suggestion,omitempty"`
	Outcome      Outcome       `json:"outcome"`
	Duration     time.Duration `json:"duration_ns"`
}

func Accept(text string) ModerationVerdict {
	return ModerationVerdict{
		Accepted:     true,
		OriginalText: text,
		Outcome:      OutcomeAccepted,
	}
}

// Reject builds a verdict for a message the oracle judged offensive.
// Reason and suggestion are taken as-is, empty values included.
func Reject(text, reason, suggestion string) ModerationVerdict {
	return ModerationVerdict{
		OriginalText: text,
		Reason:       reason,
		Suggestion:   suggestion,
		Outcome:      OutcomePolicyRejection,
	}
}

func MalformedResponse(text string) ModerationVerdict {
	return ModerationVerdict{
		OriginalText: text,
		Reason:       MalformedReason,
		Suggestion:   MalformedSuggestion,
		Outcome:      OutcomeMalformedResponse,
	}
}

func TransportFailure(text string) ModerationVerdict {
	return ModerationVerdict{
		OriginalText: text,
		Reason:       TransportReason,
		Suggestion:   TransportSuggestion,
		Outcome:      OutcomeTransportFailure,
	}
}
