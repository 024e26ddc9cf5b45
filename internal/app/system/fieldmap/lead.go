// internal/app/system/fieldmap/lead.go
package fieldmap

import (
	"github.com/dalemusser/leadhub/internal/app/system/dedup"
	"github.com/dalemusser/leadhub/internal/domain/models"
)

// ToLead copies a mapped row onto a new Lead. Email and contact are
// reduced to their dedup key form. Status, assignment, and history are
// left for the caller.
func (c Canonical) ToLead() models.Lead {
	return models.Lead{
		Name:       c[Name],
		Contact:    dedup.NormalizeContact(c[Contact]),
		Email:      dedup.NormalizeEmail(c[Email]),
		City:       c[City],
		University: c[University],
		Course:     c[Course],
		Profession: c[Profession],
		Source:     c[Source],
	}
}
