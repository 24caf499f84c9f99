package dto

import "github.com/google/uuid"

// SessionResultMessage is the work-queue payload that fans session results
// out to participant mailboxes after a close.
type SessionResultMessage struct {
	SessionId    uuid.UUID           `json:"session_id"`
	SessionTitle string              `json:"session_title"`
	Winners      []SessionResultLine `json:"winners"`
}

type SessionResultLine struct {
	Title    string `json:"title"`
	YesVotes int    `json:"yes_votes"`
	NoVotes  int    `json:"no_votes"`
}
