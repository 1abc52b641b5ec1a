package models

import "time"

// Student represents a learner registered with the portal. Profile,
// credentials and billing details live with external collaborators; the
// enrolment engine only needs the identity.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
