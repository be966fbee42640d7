package service

import (
	"errors"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/util"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("object storage unavailable")
)

// isHeadquarter reports whether the caller is logged in as the headquarter company account
func isHeadquarter(id util.Identity) bool {
	return id.AccountType == util.AccountTypeCompany && id.Role == string(model.CompanyRoleHeadquarter)
}

func isClient(id util.Identity) bool {
	return id.AccountType == util.AccountTypeUser && id.Role == string(model.RoleClient)
}

func isPresident(id util.Identity) bool {
	return id.AccountType == util.AccountTypeUser && id.Role == string(model.RolePresident)
}

func canManageUsers(id util.Identity) bool {
	return id.AccountType == util.AccountTypeCompany || isPresident(id)
}

// isCompanyMember covers company accounts and their staff/president users
func isCompanyMember(id util.Identity) bool {
	return !isClient(id) && id.CompanyID != nil
}

// canAccessCompany: headquarter sees every company, everyone else only their own
func canAccessCompany(id util.Identity, companyID uint) bool {
	if isHeadquarter(id) {
		return true
	}
	if isClient(id) {
		return false
	}
	return id.CompanyID != nil && *id.CompanyID == companyID
}

// canAccessFacility: clients see only the facility they are attached to
func canAccessFacility(id util.Identity, facility *model.Facility) bool {
	if facility == nil {
		return false
	}
	if isClient(id) {
		return id.FacilityID != nil && *id.FacilityID == facility.ID
	}
	return canAccessCompany(id, facility.CompanyID)
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
