// Package validate holds the ownership and uniqueness checks shared by the
// ledger services. The helpers are generic over ledger.OwnedEntity so the same
// rules apply to accounts, categories, currencies and account types.
package validate

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Owned loads id and checks it exists, belongs to ownerID and is not deleted.
// Any of those failing yields fail; other store errors are returned as-is.
// Entities without an owner (system records) are valid for every owner.
func Owned[T ledger.OwnedEntity](ctx context.Context, get func(context.Context, uuid.UUID) (T, error), id, ownerID uuid.UUID, fail error) (T, error) {
	var zero T
	if id == uuid.Nil {
		return zero, fail
	}
	v, err := get(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return zero, fail
	}
	if err != nil {
		return zero, err
	}
	if v.IsDeleted() {
		return zero, fail
	}
	if v.Owner() != uuid.Nil && v.Owner() != ownerID {
		return zero, fail
	}
	return v, nil
}

// NameTaken reports whether an active item other than except already uses name.
func NameTaken[T ledger.OwnedEntity](items []T, name string, except uuid.UUID) bool {
	want := ledger.NormalizeName(name)
	for _, it := range items {
		if it.IsDeleted() || it.EntityID() == except {
			continue
		}
		if ledger.NormalizeName(it.DisplayName()) == want {
			return true
		}
	}
	return false
}

// Name trims a display name and rejects blanks.
func Name(name string) (string, error) {
	n := ledger.NormalizeName(name)
	if n == "" {
		return "", errs.ErrInvalid
	}
	return strings.TrimSpace(name), nil
}
