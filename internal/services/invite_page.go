package services

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
)

// InvitePage holds the values rendered into an invite landing page
type InvitePage struct {
	UserID      string
	Title       string
	Description string
	Image       string
	Lang        string
	Platform    string
	PageURL     string
	AppLink     template.URL
	FallbackURL string
}

// NewInvitePage builds the page for userID from the link query parameters
func (s *ShortLinkService) NewInvitePage(userID, path string, query url.Values) InvitePage {
	page := InvitePage{
		UserID:      userID,
		Title:       valueOr(query, "social_title", "Join me"),
		Description: valueOr(query, "social_desc", "Connect with friends"),
		Image:       valueOr(query, "social_img", s.opts.DefaultImage),
		Lang:        valueOr(query, "lang", "ko"),
		Platform:    valueOr(query, "type", "default"),
		PageURL:     s.opts.BaseURL + path,
		FallbackURL: s.opts.FallbackURL,
	}
	if s.opts.AppScheme != "" {
		page.AppLink = template.URL(fmt.Sprintf("%s://invite/%s", s.opts.AppScheme, url.PathEscape(userID)))
	}
	return page
}

// RenderInvitePage writes the invite landing page
func RenderInvitePage(w io.Writer, page InvitePage) error {
	if err := invitePageTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render invite page: %w", err)
	}
	return nil
}

func valueOr(query url.Values, key, fallback string) string {
	if v := query.Get(key); v != "" {
		return v
	}
	return fallback
}

var invitePageTemplate = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:description" content="{{.Description}}">
  {{- if .Image}}
  <meta property="og:image" content="{{.Image}}">
  <meta name="twitter:image" content="{{.Image}}">
  {{- end}}
  <meta property="og:type" content="website">
  <meta property="og:url" content="{{.PageURL}}">
  <meta name="twitter:card" content="summary_large_image">
  <meta name="twitter:title" content="{{.Title}}">
  <meta name="twitter:description" content="{{.Description}}">
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; margin: 0;
      min-height: 100vh; display: flex; align-items: center; justify-content: center;
      background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: #fff; text-align: center; }
    .container { max-width: 400px; padding: 40px 20px; }
    .button { display: inline-block; margin-top: 24px; padding: 14px 28px; border-radius: 25px;
      background: #fff; color: #667eea; font-weight: 600; text-decoration: none; }
    .platform-info { margin-top: 20px; font-size: 12px; color: #ddd; }
  </style>
</head>
<body>
  <div class="container">
    <h1>{{.Title}}</h1>
    <p>{{.Description}}</p>
    {{- if .AppLink}}
    <a class="button" href="{{.AppLink}}">Open the app</a>
    {{- end}}
    <div class="platform-info">Platform: {{.Platform}} | User: {{.UserID}}</div>
    <p><a href="{{.FallbackURL}}" style="color:#fff">Continue on the web</a></p>
  </div>
</body>
</html>
`))
