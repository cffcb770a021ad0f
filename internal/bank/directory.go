// Package bank handles the bank registry and the linkage of a user's payout
// account: listing supported banks, resolving bank names to transfer codes
// and verifying that a linked account belongs to the user.
package bank

import (
	"context"
	"strings"

	"github.com/coinwave/azax/internal/apperr"
	"github.com/coinwave/azax/internal/paystack"
)

// Registry lists the banks the payment provider can settle against.
type Registry interface {
	ListBanks(ctx context.Context) ([]paystack.Bank, error)
}

// Directory answers bank lookups against the provider registry.
type Directory struct {
	registry Registry
}

func NewDirectory(registry Registry) *Directory {
	return &Directory{registry: registry}
}

// List returns every supported bank.
func (d *Directory) List(ctx context.Context) ([]paystack.Bank, error) {
	banks, err := d.registry.ListBanks(ctx)
	if err != nil {
		return nil, apperr.Provider("could not fetch supported banks", err)
	}
	return banks, nil
}

// ResolveByName finds the bank whose display name matches the given name,
// ignoring case and surrounding whitespace.
func (d *Directory) ResolveByName(ctx context.Context, name string) (paystack.Bank, error) {
	banks, err := d.registry.ListBanks(ctx)
	if err != nil {
		return paystack.Bank{}, apperr.Provider("could not fetch supported banks", err)
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, b := range banks {
		if strings.ToLower(strings.TrimSpace(b.Name)) == want {
			return b, nil
		}
	}
	return paystack.Bank{}, apperr.NotFound("bank not supported")
}
