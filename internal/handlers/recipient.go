package handlers

import (
	"context"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/transform"
)

// Recipient output keys
const (
	KeyUserID         = "user_id"
	KeyRecipientState = "recipient_state"

	DynamicKeyUsername = "username"
)

// ConversationRecipient transforms the recipients of a conversation
type ConversationRecipient struct {
	transform.BaseHandler
}

// NewConversationRecipient creates the recipient handler
func NewConversationRecipient() *ConversationRecipient {
	return &ConversationRecipient{}
}

// Type implements transform.Handler
func (h *ConversationRecipient) Type() string {
	return TypeConversationRecipient
}

// Mappings implements transform.Handler
func (h *ConversationRecipient) Mappings(tc *transform.Context) []transform.Mapping {
	return []transform.Mapping{
		transform.Static("user_id", KeyUserID),
		transform.Static("recipient_state", KeyRecipientState),

		transform.Dynamic(DynamicKeyUsername),
		transform.Dynamic(DynamicKeyUserIsIgnored),
	}
}

// DynamicValue implements transform.Handler
func (h *ConversationRecipient) DynamicValue(ctx context.Context, tc *transform.Context, key string) (interface{}, error) {
	recipient := tc.Source()

	switch key {
	case DynamicKeyUsername:
		user, _ := recipient.Related(RelationUser)
		if user == nil {
			return nil, nil
		}
		return user.String("username"), nil
	case DynamicKeyUserIsIgnored:
		return tc.Visitor().IsIgnoring(recipient.Int("user_id")), nil
	}

	return nil, nil
}

// Links implements transform.Handler
func (h *ConversationRecipient) Links(tc *transform.Context) *transform.Output {
	user, _ := tc.Source().Related(RelationUser)
	if user == nil {
		return nil
	}

	return transform.NewOutput().
		Set(transform.LinkPermalink, h.BuildPublicLink(tc, "members", user, nil)).
		Set(transform.LinkDetail, h.BuildAPILink(tc, "users", user, nil))
}

// OnTransformEntities hydrates the users behind the batch's recipients
func (h *ConversationRecipient) OnTransformEntities(ctx context.Context, tc *transform.Context, entities *entity.Collection) error {
	if !tc.SelectorShouldExcludeField(DynamicKeyUsername) || !tc.SelectorShouldExcludeField(transform.KeyLinks) {
		if _, err := h.LoadRelation(ctx, tc, entities, RelationUser); err != nil {
			return err
		}
	}

	return h.BaseHandler.OnTransformEntities(ctx, tc, entities)
}
