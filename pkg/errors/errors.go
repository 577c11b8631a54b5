package wavechat_errors

import "errors"

// Common errors
var (
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
	ErrAlreadyExists          = errors.New("already exists")
	ErrNotParticipant         = errors.New("not a conversation participant")
	ErrEmptyContent           = errors.New("message content is empty")
	ErrReplyWrongConversation = errors.New("reply references a message from another conversation")
	ErrDeleteUnauthorized     = errors.New("only the sender may delete for everyone")
	ErrSubscriptionClosed     = errors.New("subscription closed")
	ErrSelfConversation       = errors.New("cannot open a conversation with yourself")
)
