package model

import "time"

// Visitor is the profile of a person who may request visits. A visitor
// has many visits and many check-ins by visitor ID; there is no enforced
// foreign key, consistency is cooperative with the mobile client.
type Visitor struct {
	ID        string    // visitors.id
	Email     string    // visitors.email
	FullName  string    // visitors.full_name
	Phone     string    // visitors.phone
	Company   string    // visitors.company
	PhotoURL  *string   // visitors.photo_url (nullable)
	PushToken *string   // visitors.push_token (nullable, absent until the app registers one)
	CreatedAt time.Time // visitors.created_at
	UpdatedAt time.Time // visitors.updated_at
}
