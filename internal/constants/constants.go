package constants

const (
	ContextKeyUserID = "user_id"
	SessionName      = "ducktodo_session"

	MinPasswordLength = 8
	MinNameLength     = 2

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	DefaultColor = "#5C7F71"

	// DefaultGroupName names the private group every user receives at signup.
	DefaultGroupName = "默认任务族"
	TeamGroupSuffix  = "的任务族"
)
