package models

import "github.com/google/uuid"

// assignID fills a zero primary key before insert so rows created on
// databases without gen_random_uuid() still carry an identifier.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
