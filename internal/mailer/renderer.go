package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer renders HTML email bodies from embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer loads all embedded templates.
func NewRenderer() (*Renderer, error) {
	names := []string{"confirm_email", "order_confirmation", "contact_request"}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range names {
		filename := fmt.Sprintf("templates/%s.tmpl", name)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return r, nil
}

// Render executes the named template with the given data.
func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// ConfirmationEmailData is the payload for the confirm_email template.
type ConfirmationEmailData struct {
	Name            string
	ConfirmationURL string
}

// OrderConfirmationData is the payload for the order_confirmation template.
type OrderConfirmationData struct {
	Name    string
	OrderID string
	Total   string
	Items   []OrderConfirmationItem
}

// OrderConfirmationItem is one order line in the order_confirmation template.
type OrderConfirmationItem struct {
	ProductName string
	Count       int
	Price       string
}

// ContactRequestData is the payload for the contact_request template.
type ContactRequestData struct {
	FullName            string
	WorkEmail           string
	CompanyName         string
	PhoneNumber         string
	ProjectRequirements string
}
