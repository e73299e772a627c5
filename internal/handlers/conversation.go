package handlers

import (
	"context"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/transform"
	"golang.org/x/sync/errgroup"
)

// Conversation output keys
const (
	KeyConversationCreateDate   = "conversation_create_date"
	KeyConversationID           = "conversation_id"
	KeyConversationMessageCount = "conversation_message_count"
	KeyConversationTitle        = "conversation_title"
	KeyCreatorUserID            = "creator_user_id"
	KeyCreatorUsername          = "creator_username"
	KeyConversationUpdateDate   = "conversation_update_date"

	DynamicKeyConversationIsDeleted     = "conversation_is_deleted"
	DynamicKeyUserIsIgnored             = "user_is_ignored"
	DynamicKeyConversationIsOpen        = "conversation_is_open"
	DynamicKeyFirstMessage              = "first_message"
	DynamicKeyConversationHasNewMessage = "conversation_has_new_message"
	DynamicKeyLastMessage               = "last_message"
	DynamicKeyRecipients                = "recipients"

	LinkMessages = "messages"

	PermReply            = "reply"
	PermDelete           = "delete"
	PermEdit             = "edit"
	PermUploadAttachment = "upload_attachment"
)

// recipientKeys are the dynamic keys that read the Recipients relation
var recipientKeys = []string{
	DynamicKeyConversationIsDeleted,
	DynamicKeyConversationIsOpen,
	DynamicKeyConversationHasNewMessage,
	DynamicKeyRecipients,
}

// Conversation transforms conversation master entities
type Conversation struct {
	transform.BaseHandler
	policy Policy
}

// NewConversation creates the conversation handler
func NewConversation(policy Policy) *Conversation {
	if policy == nil {
		policy = DefaultPolicy{}
	}
	return &Conversation{policy: policy}
}

// Type implements transform.Handler
func (h *Conversation) Type() string {
	return TypeConversation
}

// Mappings implements transform.Handler
func (h *Conversation) Mappings(tc *transform.Context) []transform.Mapping {
	return []transform.Mapping{
		transform.Static("start_date", KeyConversationCreateDate),
		transform.Static("conversation_id", KeyConversationID),
		transform.Static("reply_count", KeyConversationMessageCount),
		transform.Static("title", KeyConversationTitle),
		transform.Static("user_id", KeyCreatorUserID),
		transform.Static("username", KeyCreatorUsername),
		transform.Static("last_message_date", KeyConversationUpdateDate),

		transform.Dynamic(DynamicKeyConversationIsDeleted),
		transform.Dynamic(DynamicKeyUserIsIgnored),
		transform.Dynamic(DynamicKeyConversationIsOpen),
		transform.Dynamic(DynamicKeyFirstMessage),
		transform.Dynamic(DynamicKeyConversationHasNewMessage),
		transform.OptIn(DynamicKeyLastMessage),
		transform.Dynamic(DynamicKeyRecipients),
	}
}

// DynamicValue implements transform.Handler
func (h *Conversation) DynamicValue(ctx context.Context, tc *transform.Context, key string) (interface{}, error) {
	conversation := tc.Source()

	switch key {
	case DynamicKeyConversationIsDeleted:
		// no recipient record counts as deleted
		recipient := h.visitorRecipient(tc, conversation)
		if recipient == nil {
			return true, nil
		}
		state := recipient.String("recipient_state")
		return state == RecipientStateDeleted || state == RecipientStateDeletedIgnored, nil

	case DynamicKeyUserIsIgnored:
		return tc.Visitor().IsIgnoring(conversation.Int("user_id")), nil

	case DynamicKeyConversationIsOpen:
		// no recipient record counts as closed
		recipient := h.visitorRecipient(tc, conversation)
		if recipient == nil {
			return false, nil
		}
		return recipient.String("recipient_state") == RecipientStateActive, nil

	case DynamicKeyFirstMessage:
		message, _ := conversation.Related(RelationFirstMessage)
		if message == nil {
			return nil, nil
		}
		return tc.Transformer().TransformEntity(ctx, tc, key, message)

	case DynamicKeyConversationHasNewMessage:
		recipient := h.visitorRecipient(tc, conversation)
		if recipient == nil {
			return false, nil
		}
		return recipient.Int("last_read_date") < conversation.Int("last_message_date"), nil

	case DynamicKeyLastMessage:
		if !tc.SelectorShouldIncludeField(key) {
			return nil, nil
		}
		message, _ := conversation.Related(RelationLastMessage)
		if message == nil {
			return nil, nil
		}
		return tc.Transformer().TransformEntity(ctx, tc, key, message)

	case DynamicKeyRecipients:
		return tc.Transformer().TransformEntityRelation(ctx, tc, key, conversation, RelationRecipients)
	}

	return nil, nil
}

// Links implements transform.Handler
func (h *Conversation) Links(tc *transform.Context) *transform.Output {
	conversation := tc.Source()

	return transform.NewOutput().
		Set(transform.LinkPermalink, h.BuildPublicLink(tc, "conversations", conversation, nil)).
		Set(transform.LinkDetail, h.BuildAPILink(tc, "conversations", conversation, nil)).
		Set(LinkMessages, h.BuildAPILink(tc, "conversation-messages", nil, map[string]interface{}{
			"conversation_id": conversation.Int("conversation_id"),
		}))
}

// Permissions implements transform.Handler
func (h *Conversation) Permissions(tc *transform.Context) *transform.Output {
	conversation := tc.Source()

	return transform.Permissions(
		transform.Allow(PermReply, h.policy.CanReply(tc.Visitor(), conversation)),
		transform.Allow(PermDelete, true),
		transform.Allow(PermUploadAttachment, h.policy.CanUploadAndManageAttachments(tc.Visitor(), conversation)),
	)
}

// OnTransformEntities hydrates, for the whole batch, the message relations the selector
// wants, the recipients, and the conversation-user records used by permissions. Loads run
// concurrently and all complete before nested batch hooks cascade.
func (h *Conversation) OnTransformEntities(ctx context.Context, tc *transform.Context, entities *entity.Collection) error {
	var firstMessages, lastMessages, recipients *entity.Collection

	g, gctx := errgroup.WithContext(ctx)

	if !tc.SelectorShouldExcludeField(DynamicKeyFirstMessage) {
		g.Go(func() error {
			var err error
			firstMessages, err = h.LoadRelation(gctx, tc, entities, RelationFirstMessage)
			return err
		})
	}

	if tc.SelectorShouldIncludeField(DynamicKeyLastMessage) {
		g.Go(func() error {
			var err error
			lastMessages, err = h.LoadRelation(gctx, tc, entities, RelationLastMessage)
			return err
		})
	}

	if h.wantsRecipients(tc) {
		g.Go(func() error {
			var err error
			recipients, err = h.LoadRelation(gctx, tc, entities, RelationRecipients)
			return err
		})
	}

	g.Go(func() error {
		return h.hydrateUsers(gctx, tc, entities)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := h.CascadeRelation(ctx, tc, firstMessages, DynamicKeyFirstMessage); err != nil {
		return err
	}
	if err := h.CascadeRelation(ctx, tc, lastMessages, DynamicKeyLastMessage); err != nil {
		return err
	}
	if !tc.SelectorShouldExcludeField(DynamicKeyRecipients) {
		if err := h.CascadeRelation(ctx, tc, recipients, DynamicKeyRecipients); err != nil {
			return err
		}
	}

	return h.BaseHandler.OnTransformEntities(ctx, tc, entities)
}

// OnTransformFinder implements transform.Handler
func (h *Conversation) OnTransformFinder(tc *transform.Context, finder *entity.Finder) *entity.Finder {
	if !tc.SelectorShouldExcludeField(DynamicKeyFirstMessage) {
		finder = h.TransformFinderForRelation(tc, finder, DynamicKeyFirstMessage, RelationFirstMessage)
	}

	if tc.SelectorShouldIncludeField(DynamicKeyLastMessage) {
		finder = h.TransformFinderForRelation(tc, finder, DynamicKeyLastMessage, RelationLastMessage)
	}

	return h.BaseHandler.OnTransformFinder(tc, finder)
}

// hydrateUsers loads the conversation-user records of every conversation in one query,
// groups them by conversation and owner, and hydrates the Users relation. It runs
// regardless of field selection because permissions depend on it.
func (h *Conversation) hydrateUsers(ctx context.Context, tc *transform.Context, entities *entity.Collection) error {
	if entities.Len() == 0 {
		return nil
	}

	store := tc.Transformer().Store()
	if store == nil {
		return transform.ErrNoStore
	}

	ids := make([]interface{}, 0, entities.Len())
	for _, conversation := range entities.Entities() {
		ids = append(ids, conversation.Int("conversation_id"))
	}

	users, err := store.Finder(TypeConversationUser).
		Where("conversation_id", ids...).
		Fetch(ctx, tc.Graph())
	if err != nil {
		return err
	}

	byConversation := make(map[string]*entity.Collection)
	for _, user := range users.Entities() {
		conversationID := entity.KeyOf(user.Int("conversation_id"))
		if byConversation[conversationID] == nil {
			byConversation[conversationID] = entity.NewCollection()
		}
		byConversation[conversationID].Set(entity.KeyOf(user.Int("owner_user_id")), user)
	}

	for _, conversation := range entities.Entities() {
		grouped := byConversation[entity.KeyOf(conversation.Int("conversation_id"))]
		if grouped == nil {
			grouped = entity.NewCollection()
		}
		tc.Graph().HydrateCollection(conversation, RelationUsers, grouped)
	}

	return nil
}

// wantsRecipients reports whether any recipient-backed key will be computed
func (h *Conversation) wantsRecipients(tc *transform.Context) bool {
	for _, key := range recipientKeys {
		if !tc.SelectorShouldExcludeField(key) {
			return true
		}
	}
	return false
}

// visitorRecipient returns the visitor's recipient record, or nil
func (h *Conversation) visitorRecipient(tc *transform.Context, conversation *entity.Entity) *entity.Entity {
	recipients, ok := conversation.RelatedCollection(RelationRecipients)
	if !ok {
		return nil
	}
	recipient, _ := recipients.Get(tc.Visitor().UserID())
	return recipient
}
