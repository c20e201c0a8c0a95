package machine

import "time"

// Machine is a physical bookable resource. Sessions are exclusive per machine.
type Machine struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Number      int       `json:"number" gorm:"uniqueIndex;not null"`
	Name        string    `json:"name"`
	IsAvailable bool      `json:"is_available" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Machine) TableName() string { return "machines" }
