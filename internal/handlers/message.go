package handlers

import (
	"context"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/transform"
)

// Conversation message output keys
const (
	KeyMessageID              = "message_id"
	KeyMessageCreateDate      = "message_create_date"
	KeyMessageBody            = "message_body"
	KeyMessageAttachmentCount = "message_attachment_count"

	DynamicKeyAttachments = "attachments"

	LinkConversation = "conversation"
	LinkCreator      = "creator"
)

// ConversationMessage transforms messages of a conversation
type ConversationMessage struct {
	transform.BaseHandler
	policy Policy
}

// NewConversationMessage creates the message handler
func NewConversationMessage(policy Policy) *ConversationMessage {
	if policy == nil {
		policy = DefaultPolicy{}
	}
	return &ConversationMessage{policy: policy}
}

// Type implements transform.Handler
func (h *ConversationMessage) Type() string {
	return TypeConversationMessage
}

// Mappings implements transform.Handler
func (h *ConversationMessage) Mappings(tc *transform.Context) []transform.Mapping {
	return []transform.Mapping{
		transform.Static("message_id", KeyMessageID),
		transform.Static("conversation_id", KeyConversationID),
		transform.Static("user_id", KeyCreatorUserID),
		transform.Static("username", KeyCreatorUsername),
		transform.Static("message_date", KeyMessageCreateDate),
		transform.Static("message", KeyMessageBody),
		transform.Static("attach_count", KeyMessageAttachmentCount),

		transform.Dynamic(DynamicKeyUserIsIgnored),
		transform.Dynamic(DynamicKeyAttachments),
	}
}

// DynamicValue implements transform.Handler
func (h *ConversationMessage) DynamicValue(ctx context.Context, tc *transform.Context, key string) (interface{}, error) {
	message := tc.Source()

	switch key {
	case DynamicKeyUserIsIgnored:
		return tc.Visitor().IsIgnoring(message.Int("user_id")), nil
	case DynamicKeyAttachments:
		if message.Int("attach_count") == 0 {
			return []*transform.Output{}, nil
		}
		return tc.Transformer().TransformEntityRelation(ctx, tc, key, message, RelationAttachments)
	}

	return nil, nil
}

// Links implements transform.Handler
func (h *ConversationMessage) Links(tc *transform.Context) *transform.Output {
	message := tc.Source()

	return transform.NewOutput().
		Set(transform.LinkPermalink, h.BuildPublicLink(tc, "conversations/messages", message, nil)).
		Set(transform.LinkDetail, h.BuildAPILink(tc, "conversation-messages", message, nil)).
		Set(LinkConversation, h.BuildAPILink(tc, "conversations", nil, map[string]interface{}{
			"conversation_id": message.Int("conversation_id"),
		})).
		Set(LinkCreator, h.BuildAPILink(tc, "users", nil, map[string]interface{}{
			"user_id": message.Int("user_id"),
		}))
}

// Permissions implements transform.Handler
func (h *ConversationMessage) Permissions(tc *transform.Context) *transform.Output {
	return transform.Permissions(
		transform.Allow(PermEdit, h.policy.CanEditMessage(tc.Visitor(), tc.Source())),
		transform.Allow(PermDelete, false),
	)
}

// OnTransformEntities hydrates attachments for the whole batch unless excluded
func (h *ConversationMessage) OnTransformEntities(ctx context.Context, tc *transform.Context, entities *entity.Collection) error {
	if !tc.SelectorShouldExcludeField(DynamicKeyAttachments) {
		if err := h.TransformEntitiesForRelation(ctx, tc, entities, DynamicKeyAttachments, RelationAttachments); err != nil {
			return err
		}
	}

	return h.BaseHandler.OnTransformEntities(ctx, tc, entities)
}

// OnTransformFinder implements transform.Handler
func (h *ConversationMessage) OnTransformFinder(tc *transform.Context, finder *entity.Finder) *entity.Finder {
	if !tc.SelectorShouldExcludeField(DynamicKeyAttachments) {
		finder = h.TransformFinderForRelation(tc, finder, DynamicKeyAttachments, RelationAttachments)
	}
	return h.BaseHandler.OnTransformFinder(tc, finder)
}
