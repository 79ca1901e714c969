package response

// 业务状态码
const (
	CodeSuccess = 0

	// 用户模块错误 100xx
	ErrUserNotFound = 10002
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 社区模块错误 200xx
	ErrNotFound        = 20001
	ErrContentRejected = 20002
	ErrConflict        = 20003

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
