package model

import "time"

// PushSubscription holds a browser push subscription for an operator who
// wants to be notified when stock of the subscribed items moves.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Items []*Item `gorm:"many2many:subscription_item_mapping;"`
}
