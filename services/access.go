package services

import (
	"github.com/locentra/locentra-api/models"
)

// CanMessage is the access gate for composing into a conversation. It is a
// pure predicate recomputed on every call, never cached:
//
//   - a homeowner may always compose;
//   - a tradie may compose if the job is assigned to them;
//   - a tradie may compose into an unassigned job once the counterpart has
//     sent at least one message;
//   - a job assigned to another tradie is closed to them regardless of
//     history.
func CanMessage(session models.AuthSession, job *models.Job, messages []models.Message) bool {
	return CanMessageWithReply(session, job, HasCounterpartMessage(messages, session.UserID))
}

// CanMessageWithReply is CanMessage with the counterpart-reply scan already
// done, for callers that answer it with a count query instead of a loaded
// message list.
func CanMessageWithReply(session models.AuthSession, job *models.Job, hasCounterpartReply bool) bool {
	if session.IsHomeowner() {
		return true
	}
	if job.AssignedTo(session.UserID) {
		return true
	}
	if job.Unassigned() {
		return hasCounterpartReply
	}
	return false
}

// CanCompose is the server-side composer check. It is deliberately narrower
// than CanMessage: a tradie opening contact on an unassigned job passes even
// though CanMessage reads false for that state, because the opening message is
// how the conversation starts. Only a job assigned to a different tradie
// closes the composer.
func CanCompose(session models.AuthSession, job *models.Job) bool {
	if session.IsHomeowner() {
		return true
	}
	return job.Unassigned() || job.AssignedTo(session.UserID)
}

// HasCounterpartMessage reports whether any message in the list was authored
// by someone other than the given user.
func HasCounterpartMessage(messages []models.Message, userID uint) bool {
	for _, m := range messages {
		if m.SenderID != userID {
			return true
		}
	}
	return false
}
