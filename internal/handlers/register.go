package handlers

import "github.com/conduit-lang/projector/internal/transform"

// TransformableTypes lists the entity types that must have a handler
var TransformableTypes = []string{
	TypeConversation,
	TypeConversationMessage,
	TypeConversationRecipient,
	TypeAttachment,
}

// NewRegistry registers every handler of the conversation domain and checks that no
// transformable type is missing one.
func NewRegistry(policy Policy) (*transform.Registry, error) {
	r := transform.NewRegistry()
	for _, h := range []transform.Handler{
		NewConversation(policy),
		NewConversationMessage(policy),
		NewConversationRecipient(),
		NewAttachment(),
	} {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}

	if err := r.Require(TransformableTypes...); err != nil {
		return nil, err
	}
	return r, nil
}
