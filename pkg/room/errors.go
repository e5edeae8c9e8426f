package room

import "errors"

// ErrorKind is a stable machine readable error class, suitable to
// map onto an HTTP status and a response code by the transport layer
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindDuplicate        ErrorKind = "duplicate"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindQuotaExceeded    ErrorKind = "quota_exceeded"
	KindExpired          ErrorKind = "expired"
	KindValidation       ErrorKind = "validation"
	KindInternal         ErrorKind = "internal"
)

const (
	UserAlreadyExistError    = "user with same id already exists"
	UserNotFoundError        = "user not found"
	RoomAlreadyExistError    = "room with same name already exists"
	RoomNotFoundError        = "room not found"
	ChannelAlreadyExistError = "channel with same name already exists"
	ChannelNotFoundError     = "channel not found"
	MemberNotFoundError      = "member not found"
	MemberAlreadyExistError  = "user already joined this room"
	FileNotFoundError        = "file not found"
	MessageNotFoundError     = "message not found"
	WebhookNotFoundError     = "webhook not found"
	InviteNotFoundError      = "invite link not found"
	InviteExpiredError       = "invite link has expired"
	UserNotVerifiedError     = "user email is not verified"

	MemberRequiredError    = "room membership required"
	AdminRequiredError     = "room admin permission required"
	OwnerOrModError        = "message owner or moderator permission required"
	TotalFilesLimitError   = "room total files size limit exceeded"
	SingleFileSizeError    = "file exceeds single file size limit"
	RoomUserCountError     = "room member count limit exceeded"
	RoomChannelCountError  = "room channel count limit exceeded"
	InternalStorageError   = "storage operation failed"
)

// Error is a domain error carrying a stable kind next to a human
// readable message. Internal causes are logged, never surfaced.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound builds an entity-not-found error
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Duplicate builds a unique-constraint violation error
func Duplicate(message string) error {
	return &Error{Kind: KindDuplicate, Message: message}
}

// Denied builds a permission error
func Denied(message string) error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

// Exceeded builds a quota violation error
func Exceeded(message string) error {
	return &Error{Kind: KindQuotaExceeded, Message: message}
}

// Expired builds an entity-expired error
func Expired(message string) error {
	return &Error{Kind: KindExpired, Message: message}
}

// Invalid builds a validation error
func Invalid(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// Internal builds an opaque error hiding the storage level cause
func Internal() error {
	return &Error{Kind: KindInternal, Message: InternalStorageError}
}

// KindOf returns the error kind, or internal for foreign errors
func KindOf(err error) ErrorKind {
	var domErr *Error
	if errors.As(err, &domErr) {
		return domErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a domain error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
