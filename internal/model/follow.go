package model

// Follow is a directed edge in the follow graph: a row means
// "FollowerID follows FollowedID". The pair is the identity.
type Follow struct {
	FollowerID uint `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint `gorm:"primaryKey;autoIncrement:false" json:"followed_id"`
}

func (Follow) TableName() string {
	return "follows"
}
