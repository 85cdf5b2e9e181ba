package main

import (
	"academic-auth-be/internal/model"
	"academic-auth-be/pkg/events"

	"github.com/fatih/color"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedNotificationTypes populates the database with default notification types.
func SeedNotificationTypes(db *gorm.DB) {
	types := []model.NotificationType{
		{
			Code:        events.VerificationSubmitted,
			DisplayName: "New Verification Request",
			Template:    "{document_name} ({code}) is waiting for review. Confidence score {score}%.",
			TargetType:  "INSTITUTION",
			TargetRole:  "institution_admin",
			Priority:    "MEDIUM",
			IsActive:    true,
			Channels:    datatypes.JSON([]byte(`["web", "email"]`)),
		},
		{
			Code:        events.VerificationCompleted,
			DisplayName: "Verification Complete",
			Template:    "Your {document_name} was verified by {institution}. Verification code {code}.",
			TargetType:  "SELF",
			Priority:    "HIGH",
			IsActive:    true,
			Channels:    datatypes.JSON([]byte(`["web", "email"]`)),
		},
		{
			Code:        events.VerificationApproved,
			DisplayName: "Verification Approved",
			Template:    "{institution} approved your {document_name} ({code}).",
			TargetType:  "SELF",
			Priority:    "HIGH",
			IsActive:    true,
			Channels:    datatypes.JSON([]byte(`["web", "email"]`)),
		},
		{
			Code:        events.VerificationRejected,
			DisplayName: "Verification Rejected",
			Template:    "{institution} could not verify your {document_name} ({code}).",
			TargetType:  "SELF",
			Priority:    "HIGH",
			IsActive:    true,
			Channels:    datatypes.JSON([]byte(`["web", "email"]`)),
		},
		{
			Code:        events.VerificationDisputed,
			DisplayName: "Verification Disputed",
			Template:    "A student disputed the rejection of {document_name} ({code}): {reason}",
			TargetType:  "INSTITUTION",
			TargetRole:  "institution_admin",
			Priority:    "HIGH",
			IsActive:    true,
			Channels:    datatypes.JSON([]byte(`["web", "email"]`)),
		},
		{
			Code:        events.SystemBroadcast,
			DisplayName: "System Announcement",
			Template:    "{title}: {message}",
			TargetType:  "BROADCAST",
			Priority:    "MEDIUM",
			IsActive:    true,
			Channels:    datatypes.JSON([]byte(`["web"]`)),
		},
	}

	for _, t := range types {
		if err := db.Where("code = ?", t.Code).FirstOrCreate(&t).Error; err != nil {
			color.Red("  ✗ notification type %s: %v", t.Code, err)
			continue
		}
		color.Green("  ✓ notification type %s", t.Code)
	}
}
