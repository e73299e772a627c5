// Package templater post-processes rendered HTML for API consumers. Attachment tags that
// point at the public site are rewritten to API links and annotated with known image
// dimensions.
package templater

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/handlers"
	"github.com/conduit-lang/projector/internal/links"
	"go.uber.org/zap"
)

// TemplateAttachment is the template that renders an attachment bb code tag
const TemplateAttachment = "public:bb_code_tag_attach"

// ErrNoAvatarStyling is returned when the wrapped renderer has no default avatar styling
var ErrNoAvatarStyling = errors.New("renderer does not provide default avatar styling")

// Renderer renders a named template with parameters
type Renderer interface {
	RenderTemplate(name string, params map[string]interface{}) (string, error)
}

// AvatarStyler is implemented by renderers that compute the default avatar styling
// (background color, text color, initials) for a username
type AvatarStyler interface {
	DefaultAvatarStyling(username string) map[string]string
}

// Templater wraps a Renderer and rewrites attachment links in its output
type Templater struct {
	renderer   Renderer
	links      links.Builder
	routerType string
	logger     *zap.Logger
}

// Option configures a Templater
type Option func(*Templater)

// WithRouterType sets the link type used for API links
func WithRouterType(routerType string) Option {
	return func(t *Templater) {
		if routerType != "" {
			t.routerType = routerType
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(t *Templater) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Templater
func New(renderer Renderer, builder links.Builder, opts ...Option) *Templater {
	t := &Templater{
		renderer:   renderer,
		links:      builder,
		routerType: links.TypeAPI,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RenderTemplate renders a template and, for attachment tags of attachments with a
// thumbnail, swaps the public attachment link for the API link and annotates the full
// size and thumbnail images with their dimensions. The "attachment" parameter must be an
// *entity.Entity whose Data relation is hydrated for dimensions to be added.
func (t *Templater) RenderTemplate(name string, params map[string]interface{}) (string, error) {
	output, err := t.renderer.RenderTemplate(name, params)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}

	if name != TemplateAttachment {
		return output, nil
	}

	attachment, ok := params["attachment"].(*entity.Entity)
	if !ok || attachment == nil || !attachment.Bool("has_thumbnail") {
		return output, nil
	}

	return t.RewriteAttachment(output, attachment), nil
}

// DefaultAvatarStyling returns the wrapped renderer's default avatar styling for username
func (t *Templater) DefaultAvatarStyling(username string) (map[string]string, error) {
	styler, ok := t.renderer.(AvatarStyler)
	if !ok {
		return nil, ErrNoAvatarStyling
	}
	return styler.DefaultAvatarStyling(username), nil
}

// RewriteAttachment applies the attachment rewrite to already rendered HTML
func (t *Templater) RewriteAttachment(output string, attachment *entity.Entity) string {
	args := map[string]interface{}{"hash": attachment.String("temp_hash")}
	linkPublic := escape(t.links.BuildLink(links.TypePublic, "full:attachments", attachment, args))
	linkAPI := escape(t.links.BuildLink(t.routerType, "attachments", attachment, args))

	output = strings.ReplaceAll(output, linkPublic, linkAPI)

	data, _ := attachment.Related(handlers.RelationData)
	if data == nil {
		return output
	}

	output = AddDimensionsBySrc(output, fmt.Sprintf(`src="%s"`, linkAPI), data.Int("height"), data.Int("width"))

	thumbnailURL := attachment.String("thumbnail_url")
	if full := attachment.String("thumbnail_url_full"); full != "" {
		thumbnailURL = full
	}
	srcThumbnail := fmt.Sprintf(`src="%s"`, escape(thumbnailURL))
	output = AddDimensionsBySrc(output, srcThumbnail, data.Int("thumbnail_height"), data.Int("thumbnail_width"))

	t.logger.Debug("rewrote attachment tag", zap.Int64("attachment_id", attachment.ID()))
	return output
}

// AddDimensionsBySrc appends width and height attributes after src, but only when src
// occurs exactly once in html; otherwise html is returned unchanged. Width is inserted
// first and height second, both directly after src, so the result reads
// src="..." height="..." width="...".
func AddDimensionsBySrc(html, src string, height, width int64) string {
	if strings.Count(html, src) != 1 {
		return html
	}

	html = strings.Replace(html, src, fmt.Sprintf(`%s width="%d"`, src, width), 1)
	html = strings.Replace(html, src, fmt.Sprintf(`%s height="%d"`, src, height), 1)

	return html
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// escape encodes s the way rendered templates do, so escaped links match the output
func escape(s string) string {
	return htmlEscaper.Replace(s)
}
