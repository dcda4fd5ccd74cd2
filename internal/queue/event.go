// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into outbound mail.
package queue

// ActivationEmailEvent is published when a user registers (or a new
// activation key supersedes an old one).  It carries everything the mail
// worker needs to render the activation message without querying the
// primary database.
type ActivationEmailEvent struct {
	UserID        uint64 `json:"user_id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name,omitempty"`
	ActivationKey string `json:"activation_key"`
	ExpiresAt     string `json:"expires_at"`
	IssuedAt      string `json:"issued_at"`
}
