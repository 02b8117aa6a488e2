package service

import "errors"

// 业务层错误。Handler 和实时层通过 errors.Is 将其映射为客户端可见的响应：
// 认证错误在握手阶段终止连接；其余错误只回送给发起方，绝不广播。
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrAccessDenied         = errors.New("access denied: not a member of this project")
	ErrEmptyMessage         = errors.New("message content cannot be empty")
	ErrMessageTooLong       = errors.New("message content exceeds maximum length")
	ErrInvalidRoomTarget    = errors.New("exactly one of project or conversation must be set")
	ErrInternalServer       = errors.New("internal server error")
)
