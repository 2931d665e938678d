package models

import "time"

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   message,
	}
}

// NewValidationErrorResponse carries inline field messages for the form.
func NewValidationErrorResponse(errors FieldErrors) APIResponse {
	return APIResponse{
		Success: false,
		Error:   "Validation failed",
		Errors:  errors,
	}
}

// SaveCVResponse is returned by create and edit. DownloadURL opens the export.
type SaveCVResponse struct {
	ID          string `json:"id"`
	DownloadURL string `json:"download_url"`
}

// CVSummary is one entry of the user's CV list.
type CVSummary struct {
	ID            string    `json:"id"`
	ProjectName   string    `json:"projectName"`
	TemplateIndex int       `json:"templateIndex"`
	ImgSrc        string    `json:"imgSrc,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	PreviewURL    string    `json:"preview_url"`
	DownloadURL   string    `json:"download_url"`
	EditURL       string    `json:"edit_url"`
}

// CVEditView is what the edit form loads: values, template and image.
type CVEditView struct {
	ID       string     `json:"id"`
	Values   CVForm     `json:"values"`
	Template string     `json:"template"`
	Image    *ImageView `json:"image,omitempty"`
}

type ImageView struct {
	Src string `json:"src"`
	ID  string `json:"id"`
}

// TemplateInfo describes a rendering variant for the template picker.
type TemplateInfo struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	AcceptsImage bool   `json:"accepts_image"`
}
