package output

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLoginURL is the single sign-on page users visit before downloading.
const DefaultLoginURL = "https://eo-sso-idp.eo.esa.int/idp/AuthnEngine"

// Link is one downloadable scene.
type Link struct {
	SceneID string
	URL     string
}

// HTMLOptions control the download page.
type HTMLOptions struct {
	Title    string
	LoginURL string
	Stamp    string
}

var pageTemplate = template.Must(template.New("page").Parse(`<html>
<head><title>{{.Title}}</title></head>
<body>
{{- if .LoginURL}}
<p><a href="{{.LoginURL}}">Login here first, then navigate back to this page</a></p>
{{- end}}
<p><ol>
{{- range .Links}}
<li><a href="{{.URL}}">{{.SceneID}}</a></li>
{{- end}}
</ol></p>
</body>
</html>
`))

// WriteHTML writes an ordered download page for links into dir. Links
// without a URL are dropped; an empty page is not written.
func WriteHTML(dir string, links []Link, opts HTMLOptions) (*Written, error) {
	var usable []Link
	for _, l := range links {
		if strings.TrimSpace(l.URL) != "" {
			usable = append(usable, l)
		}
	}
	if len(usable) == 0 {
		return nil, nil
	}
	sort.Slice(usable, func(i, j int) bool { return usable[i].SceneID < usable[j].SceneID })

	if opts.Title == "" {
		opts.Title = "EOLI download list"
	}
	stamp := (&Options{Stamp: opts.Stamp}).stamp()

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, struct {
		Title    string
		LoginURL string
		Links    []Link
	}{opts.Title, opts.LoginURL, usable}); err != nil {
		return nil, fmt.Errorf("failed to render download page: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("EOLI_list_%s.html", stamp))
	err := withLock(dir, func() error {
		return writeLines(path, strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"))
	})
	if err != nil {
		return nil, err
	}
	return &Written{Path: path, Count: len(usable)}, nil
}
