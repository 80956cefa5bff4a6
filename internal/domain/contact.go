package domain

import "time"

// ContactRequest is a contact form submission.
type ContactRequest struct {
	ID                  string    `json:"id"`
	FullName            string    `json:"full_name"`
	JobTitle            string    `json:"job_title,omitempty"`
	WorkEmail           string    `json:"work_email"`
	PhoneNumber         string    `json:"phone_number,omitempty"`
	CompanyName         string    `json:"company_name,omitempty"`
	Website             string    `json:"website,omitempty"`
	ProjectRequirements string    `json:"project_requirements"`
	CreatedAt           time.Time `json:"created_at"`
}
