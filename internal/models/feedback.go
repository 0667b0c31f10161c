package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedbackSource identifies who submitted a record
type FeedbackSource string

const (
	SourceGuest FeedbackSource = "Guest"
	SourceStaff FeedbackSource = "Staff"
)

// Sentiment is the classified tone of a record
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// StaffCategory groups staff-reported issues
type StaffCategory string

const (
	CategoryRoom        StaffCategory = "Room"
	CategoryFood        StaffCategory = "Food"
	CategoryService     StaffCategory = "Service"
	CategoryMaintenance StaffCategory = "Maintenance"
	CategoryOther       StaffCategory = "Other"
)

// Severity of a staff-reported issue
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Context locations with dedicated rating rules
const (
	LocCheckout    = "checkout"
	LocRoom        = "room"
	LocDiningTable = "dining_table"
)

// Feedback is a single immutable feedback record. Which optional fields are
// populated depends on the submission shape (guest, staff or contextual).
type Feedback struct {
	ID         string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Source     FeedbackSource `json:"source" gorm:"type:varchar(16);not null;index" validate:"required,oneof=Guest Staff"`
	Timestamp  time.Time      `json:"timestamp" gorm:"not null;index"`
	Sentiment  Sentiment      `json:"sentiment" gorm:"type:varchar(16);not null;default:'Neutral'" validate:"omitempty,oneof=Positive Neutral Negative"`
	IsNegative bool           `json:"isNegative" gorm:"not null;default:false;index"`
	Language   string         `json:"language,omitempty" validate:"omitempty,max=8"`

	// Guest submission
	Rating     *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment    string `json:"comment,omitempty" validate:"max=1000"`
	RoomNumber string `json:"roomNumber,omitempty" validate:"max=32"`

	// Room area
	RoomCleanliness     *int   `json:"roomCleanliness,omitempty" validate:"omitempty,min=1,max=5"`
	BathroomCleanliness *int   `json:"bathroomCleanliness,omitempty" validate:"omitempty,min=1,max=5"`
	RoomComfort         *int   `json:"roomComfort,omitempty" validate:"omitempty,min=1,max=5"`
	RoomComments        string `json:"roomComments,omitempty" validate:"max=1000"`

	// Dining area
	FoodQuality    *int   `json:"foodQuality,omitempty" validate:"omitempty,min=1,max=5"`
	DiningService  *int   `json:"diningService,omitempty" validate:"omitempty,min=1,max=5"`
	DiningComments string `json:"diningComments,omitempty" validate:"max=1000"`

	// Amenities area
	AmenityName     string `json:"amenityName,omitempty" validate:"max=100"`
	AmenityQuality  *int   `json:"amenityQuality,omitempty" validate:"omitempty,min=1,max=5"`
	AmenityComments string `json:"amenityComments,omitempty" validate:"max=1000"`

	// Staff and checkout area
	CheckoutSpeed     *int   `json:"checkoutSpeed,omitempty" validate:"omitempty,min=1,max=5"`
	BillingAccuracy   *int   `json:"billingAccuracy,omitempty" validate:"omitempty,min=1,max=5"`
	StaffFriendliness *int   `json:"staffFriendliness,omitempty" validate:"omitempty,min=1,max=5"`
	CheckoutComments  string `json:"checkoutComments,omitempty" validate:"max=1000"`
	StaffComments     string `json:"staffComments,omitempty" validate:"max=1000"`

	// General
	OverallRating *int   `json:"overallRating,omitempty" validate:"omitempty,min=1,max=5"`
	OtherComments string `json:"otherComments,omitempty" validate:"max=1000"`

	// Where and how the feedback was collected
	ContextLoc       string `json:"contextLoc,omitempty" gorm:"index" validate:"max=64"`
	ContextID        string `json:"contextId,omitempty" validate:"max=64"`
	ContextToken     string `json:"contextToken,omitempty" validate:"max=64"`
	ContextGuestName string `json:"contextGuestName,omitempty" validate:"max=100"`
	FeedbackArea     string `json:"feedbackArea,omitempty" validate:"max=64"`

	// Staff report
	Category StaffCategory `json:"category,omitempty" validate:"omitempty,oneof=Room Food Service Maintenance Other"`
	Severity Severity      `json:"severity,omitempty" validate:"omitempty,oneof=Low Medium High"`
	Location string        `json:"location,omitempty" validate:"max=100"`
	Details  string        `json:"details,omitempty" validate:"max=1000"`
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) (err error) {
	// Using uuid v7 so that ids sort with insertion time
	if f.ID == "" {
		uuidV7, err := uuid.NewV7()
		if err != nil {
			return err
		}
		f.ID = uuidV7.String()
	}

	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}
	if f.Sentiment == "" {
		f.Sentiment = SentimentNeutral
	}

	return f.Validate()
}

// Validate checks the record against its schema constraints
func (f *Feedback) Validate() error {
	return ValidateStruct(f)
}

// PrimaryRating returns the most relevant rating for display, if any
func (f *Feedback) PrimaryRating() *int {
	for _, r := range []*int{f.Rating, f.OverallRating, f.RoomCleanliness, f.FoodQuality, f.CheckoutSpeed, f.AmenityQuality} {
		if r != nil {
			return r
		}
	}
	return nil
}

// PrimaryComment returns the first non-empty free-text field
func (f *Feedback) PrimaryComment() string {
	for _, c := range f.AreaComments() {
		if c != "" {
			return c
		}
	}
	if f.Comment != "" {
		return f.Comment
	}
	return f.Details
}

// AreaComments returns the per-area comment fields scanned for keywords
func (f *Feedback) AreaComments() []string {
	return []string{
		f.CheckoutComments,
		f.RoomComments,
		f.DiningComments,
		f.AmenityComments,
		f.StaffComments,
		f.OtherComments,
	}
}

// DisplayLocation describes where the feedback came from
func (f *Feedback) DisplayLocation() string {
	switch {
	case f.Location != "":
		return f.Location
	case f.RoomNumber != "":
		return "Room " + f.RoomNumber
	case f.ContextLoc != "" && f.ContextID != "":
		return f.ContextLoc + " " + f.ContextID
	default:
		return f.ContextLoc
	}
}
