package constants

const (
	// ContextKeyUserID is the session and gin context key of the authenticated user.
	ContextKeyUserID  = "user_id"
	SessionCookieName = "planner_session"

	MinPasswordLength = 8

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	MaxAIGeneratedTasks = 20
	MaxAITextLength     = 8000

	// Context keys set by the access middleware.
	ContextKeyProduct       = "product"
	ContextKeyProductMember = "product_member"
	ContextKeySprint        = "sprint"
	ContextKeyTask          = "task"
)
