// Package handlers implements the transform handlers of the forum conversation domain.
package handlers

import "github.com/conduit-lang/projector/internal/entity"

// Entity types
const (
	TypeConversation          = "conversation"
	TypeConversationMessage   = "conversation_message"
	TypeConversationRecipient = "conversation_recipient"
	TypeConversationUser      = "conversation_user"
	TypeAttachment            = "attachment"
	TypeAttachmentData        = "attachment_data"
	TypeUser                  = "user"
)

// Relation names
const (
	RelationFirstMessage = "FirstMessage"
	RelationLastMessage  = "LastMessage"
	RelationRecipients   = "Recipients"
	RelationUsers        = "Users"
	RelationStarter      = "Starter"
	RelationConversation = "Conversation"
	RelationAttachments  = "Attachments"
	RelationUser         = "User"
	RelationData         = "Data"
)

// Recipient states
const (
	RecipientStateActive         = "active"
	RecipientStateDeleted        = "deleted"
	RecipientStateDeletedIgnored = "deleted_ignored"
)

// ForumSchema returns the tables and relations of the conversation domain
func ForumSchema() *entity.Schema {
	return entity.NewSchema(
		&entity.TypeSchema{
			Type:       TypeConversation,
			Table:      "xf_conversation_master",
			PrimaryKey: []string{"conversation_id"},
			Relations: map[string]*entity.Relation{
				RelationFirstMessage: {
					Kind:         entity.Single,
					Target:       TypeConversationMessage,
					LocalField:   "first_message_id",
					ForeignField: "message_id",
				},
				RelationLastMessage: {
					Kind:         entity.Single,
					Target:       TypeConversationMessage,
					LocalField:   "last_message_id",
					ForeignField: "message_id",
				},
				RelationRecipients: {
					Kind:         entity.Many,
					Target:       TypeConversationRecipient,
					LocalField:   "conversation_id",
					ForeignField: "conversation_id",
					KeyField:     "user_id",
					OrderBy:      "user_id",
				},
				RelationUsers: {
					Kind:         entity.Many,
					Target:       TypeConversationUser,
					LocalField:   "conversation_id",
					ForeignField: "conversation_id",
					KeyField:     "owner_user_id",
				},
				RelationStarter: {
					Kind:         entity.Single,
					Target:       TypeUser,
					LocalField:   "user_id",
					ForeignField: "user_id",
				},
			},
		},
		&entity.TypeSchema{
			Type:       TypeConversationMessage,
			Table:      "xf_conversation_message",
			PrimaryKey: []string{"message_id"},
			Relations: map[string]*entity.Relation{
				RelationConversation: {
					Kind:         entity.Single,
					Target:       TypeConversation,
					LocalField:   "conversation_id",
					ForeignField: "conversation_id",
				},
				RelationAttachments: {
					Kind:         entity.Many,
					Target:       TypeAttachment,
					LocalField:   "message_id",
					ForeignField: "content_id",
					KeyField:     "attachment_id",
					OrderBy:      "attach_date",
					Conditions:   map[string]interface{}{"content_type": TypeConversationMessage},
				},
				RelationUser: {
					Kind:         entity.Single,
					Target:       TypeUser,
					LocalField:   "user_id",
					ForeignField: "user_id",
				},
			},
		},
		&entity.TypeSchema{
			Type:       TypeConversationRecipient,
			Table:      "xf_conversation_recipient",
			PrimaryKey: []string{"conversation_id", "user_id"},
			Relations: map[string]*entity.Relation{
				RelationUser: {
					Kind:         entity.Single,
					Target:       TypeUser,
					LocalField:   "user_id",
					ForeignField: "user_id",
				},
			},
		},
		&entity.TypeSchema{
			Type:       TypeConversationUser,
			Table:      "xf_conversation_user",
			PrimaryKey: []string{"conversation_id", "owner_user_id"},
		},
		&entity.TypeSchema{
			Type:       TypeAttachment,
			Table:      "xf_attachment",
			PrimaryKey: []string{"attachment_id"},
			Relations: map[string]*entity.Relation{
				RelationData: {
					Kind:         entity.Single,
					Target:       TypeAttachmentData,
					LocalField:   "data_id",
					ForeignField: "data_id",
				},
			},
		},
		&entity.TypeSchema{
			Type:       TypeAttachmentData,
			Table:      "xf_attachment_data",
			PrimaryKey: []string{"data_id"},
		},
		&entity.TypeSchema{
			Type:       TypeUser,
			Table:      "xf_user",
			PrimaryKey: []string{"user_id"},
		},
	)
}
