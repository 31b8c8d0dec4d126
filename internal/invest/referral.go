package invest

import (
	"gorm.io/gorm"
)

// MaxUplineDepth bounds every upline walk. Invitation codes are generated, so
// cycles are not expected, but the traversal never follows more than three hops.
const MaxUplineDepth = 3

// Upline resolves up to depth inviting ancestors of a user by following
// InvitationCode -> MyInvitationCode lookups. The list is ordered level-1
// first and is shorter when the chain terminates early.
func Upline(db *gorm.DB, user User, depth int) ([]User, error) {
	if depth > MaxUplineDepth {
		depth = MaxUplineDepth
	}
	ancestors := make([]User, 0, depth)
	code := user.InvitationCode
	for i := 0; i < depth; i++ {
		if code == "" {
			break
		}
		var parent User
		res := db.Where("my_invitation_code = ?", code).First(&parent)
		if res.Error != nil {
			if res.Error == gorm.ErrRecordNotFound {
				break // broken link, treat as chain end
			}
			return nil, res.Error
		}
		ancestors = append(ancestors, parent)
		code = parent.InvitationCode
	}
	return ancestors, nil
}

// ActiveMemberCount counts direct and indirect downline members (3 levels)
// whose status is active. What makes a member "active" is decided at
// registration/deposit time by whoever flips User.Status.
func ActiveMemberCount(db *gorm.DB, user User) (uint, error) {
	codes := []string{user.MyInvitationCode}
	total := uint(0)
	for lvl := 0; lvl < MaxUplineDepth; lvl++ {
		if len(codes) == 0 {
			break
		}
		var members []User
		res := db.Where("invitation_code IN ?", codes).Find(&members)
		if res.Error != nil {
			return 0, res.Error
		}
		codes = codes[:0]
		for _, m := range members {
			if m.Status == StatusActive {
				total++
			}
			codes = append(codes, m.MyInvitationCode)
		}
	}
	return total, nil
}

// RefData summarizes referral earnings by upline level for the stats payload.
type RefData struct {
	TotalCounter    uint    `json:"total_counter"`
	LvlOneCounter   uint    `json:"lvl_one_counter"`
	LvlTwoCounter   uint    `json:"lvl_two_counter"`
	LvlThreeCounter uint    `json:"lvl_three_counter"`
	Total           float64 `json:"total"`
	LvlOne          float64 `json:"lvl_one"`
	LvlTwo          float64 `json:"lvl_two"`
	LvlThree        float64 `json:"lvl_three"`
}

func GetRefStats(db *gorm.DB, user User) (refStats RefData) {
	var records []RewardRecord
	res := db.Where("user_id = ? AND type = ?", user.Id, RewardTeamCommission).Find(&records)
	if res.RowsAffected > 0 {
		seen := map[uint]map[uint]bool{1: {}, 2: {}, 3: {}}
		for _, record := range records {
			refStats.TotalCounter++
			refStats.Total += record.Amount
			switch record.Level {
			case 1:
				refStats.LvlOne += record.Amount
				seen[1][record.SourceUserId] = true
			case 2:
				refStats.LvlTwo += record.Amount
				seen[2][record.SourceUserId] = true
			case 3:
				refStats.LvlThree += record.Amount
				seen[3][record.SourceUserId] = true
			}
		}
		refStats.LvlOneCounter = uint(len(seen[1]))
		refStats.LvlTwoCounter = uint(len(seen[2]))
		refStats.LvlThreeCounter = uint(len(seen[3]))
	}
	return refStats
}
