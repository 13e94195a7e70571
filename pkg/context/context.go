// Package context carries per-request metadata through context.Context.
package context

import "context"

type requestKey struct{}

// Request is the metadata the HTTP layer attaches to each request
type Request struct {
	ID       string
	UserID   string
	Method   string
	Route    string
	RemoteIP string
	// Backend is the storage mode that was active when the request arrived
	Backend string
}

func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFrom returns the request metadata in ctx, zero when there is none
func RequestFrom(ctx context.Context) Request {
	r, _ := ctx.Value(requestKey{}).(Request)
	return r
}

func GetRequestID(ctx context.Context) string {
	return RequestFrom(ctx).ID
}

func GetUserID(ctx context.Context) string {
	return RequestFrom(ctx).UserID
}

func GetBackend(ctx context.Context) string {
	return RequestFrom(ctx).Backend
}

// Fields returns r as log fields. Empty values are left out.
func (r Request) Fields() map[string]any {
	fields := make(map[string]any, 6)
	for k, v := range map[string]string{
		"request_id": r.ID,
		"user_id":    r.UserID,
		"method":     r.Method,
		"route":      r.Route,
		"remote_ip":  r.RemoteIP,
		"backend":    r.Backend,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}
