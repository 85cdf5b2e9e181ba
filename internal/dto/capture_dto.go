package dto

type AcquireCaptureRequest struct {
	View string `json:"view" validate:"required,oneof=camera qr"`
}

type CapturePermissionErrorRequest struct {
	Reason string `json:"reason" validate:"max=100"`
}

type CapturePermissionErrorResponse struct {
	Message string `json:"message"`
}
