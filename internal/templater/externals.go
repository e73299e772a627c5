package templater

import "strings"

// RequiredExternals collects the stylesheets and scripts a rendered fragment depends on,
// so API clients can load them next to the HTML.
type RequiredExternals struct {
	cssLoadURL func(templates []string) string

	includeCSS []string
	inlineCSS  []string
	includeJS  []string
	inlineJS   []string
}

// NewRequiredExternals creates an empty collector. cssLoadURL turns a list of CSS
// templates into a single stylesheet URL.
func NewRequiredExternals(cssLoadURL func(templates []string) string) *RequiredExternals {
	return &RequiredExternals{cssLoadURL: cssLoadURL}
}

// IncludeCSS requires a CSS template
func (r *RequiredExternals) IncludeCSS(template string) {
	r.includeCSS = appendUnique(r.includeCSS, template)
}

// InlineCSS requires an inline style block
func (r *RequiredExternals) InlineCSS(css string) {
	r.inlineCSS = append(r.inlineCSS, css)
}

// IncludeJS requires a script URL
func (r *RequiredExternals) IncludeJS(src string) {
	r.includeJS = appendUnique(r.includeJS, src)
}

// InlineJS requires an inline script
func (r *RequiredExternals) InlineJS(js string) {
	r.inlineJS = append(r.inlineJS, js)
}

// Clear drops everything collected so far
func (r *RequiredExternals) Clear() {
	r.includeCSS = nil
	r.inlineCSS = nil
	r.includeJS = nil
	r.inlineJS = nil
}

// HTML renders the collected externals: one stylesheet link, inline styles, script
// tags, then inline scripts.
func (r *RequiredExternals) HTML() string {
	var b strings.Builder

	if len(r.includeCSS) > 0 && r.cssLoadURL != nil {
		b.WriteString(`<link rel="stylesheet" href="`)
		b.WriteString(escape(r.cssLoadURL(r.includeCSS)))
		b.WriteString(`" />`)
	}

	for _, inline := range r.inlineCSS {
		b.WriteString("<style>" + inline + "</style>")
	}

	for _, src := range r.includeJS {
		b.WriteString(`<script src="` + escape(src) + `"></script>`)
	}

	for _, inline := range r.inlineJS {
		b.WriteString("<script>" + inline + "</script>")
	}

	return b.String()
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
