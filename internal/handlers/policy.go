package handlers

import (
	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/visitor"
)

// PermissionUploadAttachment allows uploading attachments to conversations
const PermissionUploadAttachment = "conversation.uploadAttachment"

// Policy answers capability questions about conversation entities. Implementations must
// be read-only and rely on relations hydrated by batch hooks.
type Policy interface {
	CanReply(v visitor.Visitor, conversation *entity.Entity) bool
	CanUploadAndManageAttachments(v visitor.Visitor, conversation *entity.Entity) bool
	CanEditMessage(v visitor.Visitor, message *entity.Entity) bool
}

// DefaultPolicy grants capabilities to participants of open conversations
type DefaultPolicy struct{}

// CanReply requires a signed-in participant and an open conversation
func (DefaultPolicy) CanReply(v visitor.Visitor, conversation *entity.Entity) bool {
	if v.UserID() == 0 || !conversation.Bool("conversation_open") {
		return false
	}
	return isParticipant(v, conversation)
}

// CanUploadAndManageAttachments requires a participant holding the upload permission
func (DefaultPolicy) CanUploadAndManageAttachments(v visitor.Visitor, conversation *entity.Entity) bool {
	if v.UserID() == 0 || !v.HasPermission(PermissionUploadAttachment) {
		return false
	}
	return isParticipant(v, conversation)
}

// CanEditMessage allows authors to edit their own messages
func (DefaultPolicy) CanEditMessage(v visitor.Visitor, message *entity.Entity) bool {
	return v.UserID() != 0 && message.Int("user_id") == v.UserID()
}

// isParticipant checks the hydrated conversation-user relation
func isParticipant(v visitor.Visitor, conversation *entity.Entity) bool {
	users, ok := conversation.RelatedCollection(RelationUsers)
	if !ok {
		return false
	}
	_, found := users.Get(v.UserID())
	return found
}
