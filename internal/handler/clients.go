package handler

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/yourorg/invoicedesk/internal/domain"
	"github.com/yourorg/invoicedesk/internal/service"
)

const maxUploadBytes = 32 << 20

// ClientsHandler handles the client CRUD routes
type ClientsHandler struct {
	clientService *service.ClientService
	logger        *slog.Logger
}

// NewClientsHandler creates a new clients handler
func NewClientsHandler(clientService *service.ClientService, logger *slog.Logger) *ClientsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &ClientsHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// List handles GET /api/clients
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientService.List()
	if err != nil {
		h.logger.Error("failed to list clients", slog.String("error", err.Error()))
		writeDomainError(w, err, h.logger)
		return
	}

	resp := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, toClientResponse(c))
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// Get handles GET /api/clients/{id}
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, err := h.clientService.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(client), h.logger)
}

// Create handles POST /api/clients (multipart, attachment mandatory)
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, upload, err := parseClientForm(r, true)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	defer upload.close()

	client, err := h.clientService.Create(in, upload.toUpload())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, toClientResponse(client), h.logger)
}

// Update handles PUT /api/clients/{id} (multipart, attachment optional)
func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, upload, err := parseClientForm(r, false)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	defer upload.close()

	var file *service.Upload
	if upload.file != nil {
		u := upload.toUpload()
		file = &u
	}

	client, err := h.clientService.Update(r.PathValue("id"), in, file)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(client), h.logger)
}

// Delete handles DELETE /api/clients/{id}
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.clientService.Delete(r.PathValue("id")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "client and files deleted successfully", h.logger)
}

// multipartUpload pairs an opened form file with its header.
type multipartUpload struct {
	file     multipart.File
	filename string
}

func (u *multipartUpload) toUpload() service.Upload {
	return service.Upload{Filename: u.filename, Content: u.file}
}

func (u *multipartUpload) close() {
	if u.file != nil {
		u.file.Close()
	}
}

func parseClientForm(r *http.Request, fileRequired bool) (service.ClientInput, *multipartUpload, error) {
	upload := &multipartUpload{}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return service.ClientInput{}, upload, fmt.Errorf("%w: expected multipart form", domain.ErrValidation)
	}

	in := service.ClientInput{
		Name:       r.FormValue("name"),
		TaxID:      r.FormValue("taxId"),
		Email:      r.FormValue("email"),
		PostalCode: r.FormValue("postalCode"),
		TaxRegime:  r.FormValue("taxRegime"),
	}

	if raw := r.FormValue("registeredDate"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return in, upload, fmt.Errorf("%w: registeredDate must be YYYY-MM-DD", domain.ErrValidation)
		}
		in.RegisteredDate = date
	} else {
		in.RegisteredDate = time.Now()
	}

	file, header, err := r.FormFile("attachment")
	if err != nil {
		if fileRequired {
			return in, upload, fmt.Errorf("%w: attachment file is required", domain.ErrValidation)
		}
		return in, upload, nil
	}
	upload.file = file
	upload.filename = header.Filename
	return in, upload, nil
}
