package lesson

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var funcs = template.FuncMap{"join": strings.Join}

var (
	prompts  = template.Must(template.New("prompts").Funcs(funcs).ParseFS(promptFS, "prompts/*.tmpl"))
	pageTmpl = htmltemplate.Must(htmltemplate.New("page.html.tmpl").Funcs(htmltemplate.FuncMap{"join": strings.Join}).ParseFS(promptFS, "prompts/page.html.tmpl"))
)

type promptData struct {
	Topics []string
	Age    int
	Type   Type
	Extra  string
}

type pageData struct {
	Topics []string
	Image  htmltemplate.URL
}

func renderPrompt(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func renderImagePage(topics []string, dataURL string) (string, error) {
	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, pageData{Topics: topics, Image: htmltemplate.URL(dataURL)})
	return buf.String(), err
}
