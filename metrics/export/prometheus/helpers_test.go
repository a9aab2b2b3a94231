package prometheus

import (
	"context"

	portalAuth "github.com/MrEthical07/portalAuth"
)

type nopDirectory struct{}

func (nopDirectory) FindByIdentifier(context.Context, string) (*portalAuth.Account, error) {
	return nil, nil
}

func (nopDirectory) PermissionsForRole(context.Context, portalAuth.Role) ([]string, error) {
	return nil, nil
}

func (nopDirectory) TouchLastLogin(context.Context, string) error { return nil }
