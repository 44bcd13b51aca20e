package models

// Subscription enumerates the account tiers.
type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

// Valid reports whether the subscription is one of the known tiers.
func (s Subscription) Valid() bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

// User is the account entity driving the authentication lifecycle.
//
// Token holds the single active session token; an empty value means logged
// out. VerificationToken is present while the email is unconfirmed and
// cleared on successful verification.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Subscription Subscription `gorm:"type:varchar(16);default:starter" json:"subscription"`
	AvatarURL    string       `gorm:"not null" json:"avatar_url"`

	Verified          bool    `gorm:"default:false" json:"verified"`
	VerificationToken *string `gorm:"index" json:"-"`

	Token string `gorm:"default:''" json:"-"`

	Contacts []Contact `gorm:"foreignKey:OwnerID" json:"-"`
}
