package contact

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mond-tech/solfrance-backend/internal/domain"
	"github.com/mond-tech/solfrance-backend/internal/pkg/httputil"
)

// Handler exposes the contact form over HTTP.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a contact HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the contact routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/contact", h.Submit)
}

type submitRequest struct {
	FullName            string `json:"fullName" validate:"required,max=200"`
	JobTitle            string `json:"jobTitle" validate:"max=200"`
	WorkEmail           string `json:"workEmail" validate:"required,email"`
	PhoneNumber         string `json:"phoneNumber" validate:"max=50"`
	CompanyName         string `json:"companyName" validate:"max=200"`
	Website             string `json:"website" validate:"omitempty,url"`
	ProjectRequirements string `json:"projectRequirements" validate:"required,max=5000"`
}

// Submit accepts a contact form submission.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	cr := &domain.ContactRequest{
		FullName:            req.FullName,
		JobTitle:            req.JobTitle,
		WorkEmail:           req.WorkEmail,
		PhoneNumber:         req.PhoneNumber,
		CompanyName:         req.CompanyName,
		Website:             req.Website,
		ProjectRequirements: req.ProjectRequirements,
	}

	if err := h.service.Submit(r.Context(), cr); err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	httputil.Success(w, http.StatusCreated, map[string]string{"id": cr.ID})
}
