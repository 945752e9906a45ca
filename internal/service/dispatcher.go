package service

import (
	"context"
	"errors"
	"log"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/repository"
)

// DeliveryResult reports what happened to the push half of a dispatch.
// The durable notification row is written regardless, so callers can
// decide for themselves whether a failed or skipped push matters.
type DeliveryResult int

const (
	// Delivered means the gateway accepted the push message.
	Delivered DeliveryResult = iota
	// TokenMissing means the target user has no registered device token,
	// so no push was attempted. This is not an error condition.
	TokenMissing
	// SendFailed means the push could not be delivered: the gateway
	// rejected it or was unreachable, or the token lookup itself failed
	// before a push could be attempted.
	SendFailed
)

// String returns a log-friendly name for the result.
func (r DeliveryResult) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case TokenMissing:
		return "token_missing"
	case SendFailed:
		return "send_failed"
	default:
		return "unknown"
	}
}

// NotificationStore persists the durable notification log.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

// TokenResolver looks up the push token registered for a user. ok is
// false when the user exists without a token or does not exist at all.
type TokenResolver interface {
	PushToken(ctx context.Context, userID string) (token string, ok bool, err error)
}

// Dispatcher composes and sends push notifications and records every
// dispatch in the notification log. Policy, applied at every call site:
// the notification row is ALWAYS written first; the push is attempted
// only when a token exists; a push failure is reported in the result and
// never as an error, so callers are free to log and move on.
type Dispatcher struct {
	store  NotificationStore
	tokens TokenResolver
	push   Pusher
}

// NewDispatcher constructs a Dispatcher from its collaborators.
func NewDispatcher(store NotificationStore, tokens TokenResolver, push Pusher) *Dispatcher {
	if store == nil || tokens == nil || push == nil {
		panic("nil dependency passed to NewDispatcher")
	}
	return &Dispatcher{store: store, tokens: tokens, push: push}
}

// Notify records a notification for userID and attempts a push. The
// returned error covers only the durable write; push problems surface
// through the DeliveryResult.
func (d *Dispatcher) Notify(ctx context.Context, userID, title, body, typ, relatedVisitID string) (DeliveryResult, error) {
	rec := &model.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Type:   typ,
	}
	if relatedVisitID != "" {
		rv := relatedVisitID
		rec.RelatedVisitID = &rv
	}
	if err := d.store.Create(ctx, rec); err != nil {
		return SendFailed, err
	}

	token, ok, err := d.tokens.PushToken(ctx, userID)
	if err != nil {
		log.Printf("dispatcher: token lookup for %s failed: %v", userID, err)
		return SendFailed, nil
	}
	if !ok {
		return TokenMissing, nil
	}

	data := map[string]string{"type": typ}
	if relatedVisitID != "" {
		data["visitId"] = relatedVisitID
	}
	if err := d.push.Push(ctx, token, title, body, data); err != nil {
		log.Printf("dispatcher: push to %s failed: %v", userID, err)
		return SendFailed, nil
	}
	return Delivered, nil
}

// UserTokens resolves push tokens across both user populations: the
// visitors table first, then admins. A user present in neither reports
// no token rather than an error.
type UserTokens struct {
	Visitors *repository.VisitorRepo
	Admins   *repository.AdminRepo
}

// PushToken implements TokenResolver.
func (u *UserTokens) PushToken(ctx context.Context, userID string) (string, bool, error) {
	v, err := u.Visitors.GetByID(ctx, userID)
	if err == nil {
		if v.PushToken == nil {
			return "", false, nil
		}
		return *v.PushToken, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", false, err
	}
	a, err := u.Admins.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if a.PushToken == nil {
		return "", false, nil
	}
	return *a.PushToken, true, nil
}
