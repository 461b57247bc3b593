package models

// UploadSectionRequest carries a section file to store in the upload folder
type UploadSectionRequest struct {
	Filename string `json:"filename" validate:"required"`
	Content  string `json:"content" validate:"required"`
}
