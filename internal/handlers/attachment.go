package handlers

import (
	"context"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/transform"
)

// Attachment output keys
const (
	KeyAttachmentID            = "attachment_id"
	KeyAttachmentCreateDate    = "attachment_create_date"
	KeyFilename                = "filename"
	KeyAttachmentDownloadCount = "attachment_download_count"

	DynamicKeyAttachmentIsInserted = "attachment_is_inserted"
	DynamicKeyAttachmentWidth      = "attachment_width"
	DynamicKeyAttachmentHeight     = "attachment_height"

	LinkData      = "data"
	LinkThumbnail = "thumbnail"
)

// Attachment transforms attachments of messages
type Attachment struct {
	transform.BaseHandler
}

// NewAttachment creates the attachment handler
func NewAttachment() *Attachment {
	return &Attachment{}
}

// Type implements transform.Handler
func (h *Attachment) Type() string {
	return TypeAttachment
}

// Mappings implements transform.Handler
func (h *Attachment) Mappings(tc *transform.Context) []transform.Mapping {
	return []transform.Mapping{
		transform.Static("attachment_id", KeyAttachmentID),
		transform.Static("attach_date", KeyAttachmentCreateDate),
		transform.Static("filename", KeyFilename),
		transform.Static("view_count", KeyAttachmentDownloadCount),

		transform.Dynamic(DynamicKeyAttachmentIsInserted),
		transform.Dynamic(DynamicKeyAttachmentWidth),
		transform.Dynamic(DynamicKeyAttachmentHeight),
	}
}

// DynamicValue implements transform.Handler
func (h *Attachment) DynamicValue(ctx context.Context, tc *transform.Context, key string) (interface{}, error) {
	attachment := tc.Source()

	switch key {
	case DynamicKeyAttachmentIsInserted:
		return attachment.Int("content_id") > 0, nil
	case DynamicKeyAttachmentWidth:
		if data, _ := attachment.Related(RelationData); data != nil {
			return data.Int("width"), nil
		}
	case DynamicKeyAttachmentHeight:
		if data, _ := attachment.Related(RelationData); data != nil {
			return data.Int("height"), nil
		}
	}

	return nil, nil
}

// Links implements transform.Handler
func (h *Attachment) Links(tc *transform.Context) *transform.Output {
	attachment := tc.Source()
	hash := map[string]interface{}{"hash": attachment.String("temp_hash")}

	links := transform.NewOutput().
		Set(transform.LinkPermalink, h.BuildPublicLink(tc, "full:attachments", attachment, hash)).
		Set(transform.LinkDetail, h.BuildAPILink(tc, "attachments", attachment, nil)).
		Set(LinkData, h.BuildAPILink(tc, "attachments", attachment, hash))

	if attachment.Bool("has_thumbnail") && attachment.String("thumbnail_url") != "" {
		links.Set(LinkThumbnail, attachment.String("thumbnail_url"))
	}
	return links
}

// Permissions implements transform.Handler
func (h *Attachment) Permissions(tc *transform.Context) *transform.Output {
	attachment := tc.Source()
	v := tc.Visitor()
	return transform.Permissions(
		transform.Allow(PermDelete, v.UserID() != 0 && attachment.Int("user_id") == v.UserID()),
	)
}

// OnTransformEntities hydrates attachment data unless both dimensions are excluded
func (h *Attachment) OnTransformEntities(ctx context.Context, tc *transform.Context, entities *entity.Collection) error {
	if !tc.SelectorShouldExcludeField(DynamicKeyAttachmentWidth) || !tc.SelectorShouldExcludeField(DynamicKeyAttachmentHeight) {
		if _, err := h.LoadRelation(ctx, tc, entities, RelationData); err != nil {
			return err
		}
	}

	return h.BaseHandler.OnTransformEntities(ctx, tc, entities)
}
