package ctxutil

import "context"

// 使用私有类型避免与其他 context key 冲突
type (
	userIDKeyType struct{}
	paidKeyType   struct{}
)

var (
	userIDKey = userIDKeyType{}
	paidKey   = paidKeyType{}
)

// WithUser 将调用方身份注入到 context 中
// 在认证中间件中调用：
//
//	ctx := ctxutil.WithUser(c.Request.Context(), claims.UserID, claims.Paid)
//	c.Request = c.Request.WithContext(ctx)
func WithUser(ctx context.Context, userID string, paid bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, paidKey, paid)
}

// GetUserID 从 context 中解析 userID，第二个返回值表示是否存在
func GetUserID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// IsPaid 调用方是否为付费用户，未设置时为 false
func IsPaid(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	paid, _ := ctx.Value(paidKey).(bool)
	return paid
}
