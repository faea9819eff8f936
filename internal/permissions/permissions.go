// Package permissions holds the capability checks used by the HTTP layer.
// They look only at the actor and the resource, never at the request.
package permissions

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Skotchmaster/authservice/internal/models"
)

// IsOwnerOrAdmin allows active admins everything and other active accounts
// only the resource they own.
func IsOwnerOrAdmin(actor *models.Account, ownerID uuid.UUID) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	return actor.IsAdmin || actor.ID == ownerID
}

// IsAdminOrReadOnly allows safe methods to anyone and writes to admins only.
func IsAdminOrReadOnly(actor *models.Account, method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return actor != nil && actor.IsActive && actor.IsAdmin
}
