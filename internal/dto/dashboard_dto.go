package dto

import (
	"time"

	"github.com/google/uuid"
)

type DashboardStats struct {
	Total      int64 `json:"total"`
	Verified   int64 `json:"verified"`
	Processing int64 `json:"processing"`
	Pending    int64 `json:"pending"`
	Rejected   int64 `json:"rejected"`
}

type ActivityResponse struct {
	Id               uuid.UUID `json:"id"`
	VerificationCode string    `json:"verification_code"`
	DocumentName     string    `json:"document_name"`
	Type             string    `json:"type"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Timestamp        time.Time `json:"timestamp"`
}

type DashboardResponse struct {
	Stats               DashboardStats         `json:"stats"`
	RecentVerifications []VerificationResponse `json:"recent_verifications"`
	RecentActivity      []ActivityResponse     `json:"recent_activity"`
}
