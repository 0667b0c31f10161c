package feedback

import "feedback-backend/internal/models"

// GuestSubmission is the short form guests fill in from the room tablet or website
type GuestSubmission struct {
	Rating     *int   `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=1000"`
	RoomNumber string `json:"roomNumber" validate:"max=32"`
	Language   string `json:"language" validate:"omitempty,max=8"`
}

// StaffSubmission is an issue reported by an employee
type StaffSubmission struct {
	Category models.StaffCategory `json:"category" validate:"required,oneof=Room Food Service Maintenance Other"`
	Severity models.Severity      `json:"severity" validate:"required,oneof=Low Medium High"`
	Location string               `json:"location" validate:"max=100"`
	Details  string               `json:"details" validate:"max=1000"`
}

// SubmissionContext identifies where a contextual form was opened
type SubmissionContext struct {
	Loc       string `json:"loc" validate:"max=64"`
	ID        string `json:"id" validate:"max=64"`
	Token     string `json:"token" validate:"max=64"`
	GuestName string `json:"guestName" validate:"max=100"`
}

// ContextualSubmission is the detailed per-area form reached through a token
type ContextualSubmission struct {
	Context      SubmissionContext     `json:"context"`
	Source       models.FeedbackSource `json:"source" validate:"omitempty,oneof=Guest Staff"`
	FeedbackArea string                `json:"feedbackArea" validate:"max=64"`
	Language     string                `json:"language" validate:"omitempty,max=8"`

	RoomCleanliness     *int   `json:"roomCleanliness" validate:"omitempty,min=1,max=5"`
	BathroomCleanliness *int   `json:"bathroomCleanliness" validate:"omitempty,min=1,max=5"`
	RoomComfort         *int   `json:"roomComfort" validate:"omitempty,min=1,max=5"`
	RoomComments        string `json:"roomComments" validate:"max=1000"`

	FoodQuality    *int   `json:"foodQuality" validate:"omitempty,min=1,max=5"`
	DiningService  *int   `json:"diningService" validate:"omitempty,min=1,max=5"`
	DiningComments string `json:"diningComments" validate:"max=1000"`

	AmenityName     string `json:"amenityName" validate:"max=100"`
	AmenityQuality  *int   `json:"amenityQuality" validate:"omitempty,min=1,max=5"`
	AmenityComments string `json:"amenityComments" validate:"max=1000"`

	CheckoutSpeed     *int   `json:"checkoutSpeed" validate:"omitempty,min=1,max=5"`
	BillingAccuracy   *int   `json:"billingAccuracy" validate:"omitempty,min=1,max=5"`
	StaffFriendliness *int   `json:"staffFriendliness" validate:"omitempty,min=1,max=5"`
	CheckoutComments  string `json:"checkoutComments" validate:"max=1000"`
	StaffComments     string `json:"staffComments" validate:"max=1000"`

	OverallRating *int   `json:"overallRating" validate:"omitempty,min=1,max=5"`
	OtherComments string `json:"otherComments" validate:"max=1000"`
}

func (s *ContextualSubmission) record() *models.Feedback {
	source := s.Source
	if source == "" {
		source = models.SourceGuest
	}
	area := s.FeedbackArea
	if area == "" {
		area = s.Context.Loc
	}

	return &models.Feedback{
		Source:   source,
		Language: s.Language,

		RoomCleanliness:     s.RoomCleanliness,
		BathroomCleanliness: s.BathroomCleanliness,
		RoomComfort:         s.RoomComfort,
		RoomComments:        s.RoomComments,

		FoodQuality:    s.FoodQuality,
		DiningService:  s.DiningService,
		DiningComments: s.DiningComments,

		AmenityName:     s.AmenityName,
		AmenityQuality:  s.AmenityQuality,
		AmenityComments: s.AmenityComments,

		CheckoutSpeed:     s.CheckoutSpeed,
		BillingAccuracy:   s.BillingAccuracy,
		StaffFriendliness: s.StaffFriendliness,
		CheckoutComments:  s.CheckoutComments,
		StaffComments:     s.StaffComments,

		OverallRating: s.OverallRating,
		OtherComments: s.OtherComments,

		ContextLoc:       s.Context.Loc,
		ContextID:        s.Context.ID,
		ContextToken:     s.Context.Token,
		ContextGuestName: s.Context.GuestName,
		FeedbackArea:     area,
	}
}
