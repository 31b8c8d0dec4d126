package invest

import (
	"time"

	"github.com/dchest/uniuri"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

type User struct {
	Id                uint           `json:"id" gorm:"primarykey"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	Email             string         `json:"email"`
	Role              string         `gorm:"not null;default:user" json:"role"`      // "user", "admin"
	Status            string         `gorm:"not null;default:pending" json:"status"` // "pending", "active", "suspended"
	MyInvitationCode  string         `gorm:"uniqueIndex;not null" json:"my_invitation_code"`
	InvitationCode    string         `gorm:"index" json:"invitation_code"` // inviter's code, empty for the root user
	TotalAssetValue   float64        `json:"total_asset_value"`
	TotalWithdrawable float64        `json:"total_withdrawable"`
	TotalInTrustFund  float64        `json:"total_in_trust_fund"`
}

// UserData is the balance payload pushed to clients over REST and the ws sync
// channel.
type UserData struct {
	ID               uint    `json:"id"`
	Status           string  `json:"status"`
	AssetValue       float64 `json:"total_asset_value"`
	Withdrawable     float64 `json:"total_withdrawable"`
	InTrustFund      float64 `json:"total_in_trust_fund"`
	MyInvitationCode string  `json:"my_invitation_code"`
	TierLevel        uint    `json:"tier_level"`
}

const invitationCodeLen = 8

// CreateUser provisions a platform account for an externally authenticated
// identity. The invitation code of the inviter may be empty only for the
// root account; a generated code keyed by unique index identifies the new
// user in the referral graph.
func CreateUser(db *gorm.DB, email string, role string, inviterCode string) (User, error) {
	if inviterCode != "" {
		var inviter User
		res := db.Where("my_invitation_code = ?", inviterCode).First(&inviter)
		if res.Error != nil {
			return User{}, res.Error
		}
	}
	user := User{
		Email:            email,
		Role:             role,
		Status:           StatusPending,
		MyInvitationCode: uniuri.NewLen(invitationCodeLen),
		InvitationCode:   inviterCode,
	}
	// Retry on the rare code collision; the unique index is the arbiter.
	for attempt := 0; attempt < 3; attempt++ {
		res := db.Create(&user)
		if res.Error == nil {
			return user, nil
		}
		user.MyInvitationCode = uniuri.NewLen(invitationCodeLen)
	}
	res := db.Create(&user)
	return user, res.Error
}

func (u User) Data() UserData {
	return UserData{
		ID:               u.Id,
		Status:           u.Status,
		AssetValue:       u.TotalAssetValue,
		Withdrawable:     u.TotalWithdrawable,
		InTrustFund:      u.TotalInTrustFund,
		MyInvitationCode: u.MyInvitationCode,
	}
}
