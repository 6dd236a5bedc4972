package candidate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a role name is not one of the supported role types.
var ErrUnknownRole = errors.New("unknown role")

// Role is the job category of the offered position.
type Role int

const (
	RoleIT Role = iota
	RoleSales
	RoleHR
	RoleFinance
	RoleOperations
)

// Roles returns every role ordered by its model code.
func Roles() []Role {
	return []Role{RoleIT, RoleSales, RoleHR, RoleFinance, RoleOperations}
}

// RoleNames returns the display names of all roles ordered by code.
func RoleNames() []string {
	roles := Roles()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}

	return names
}

func (r Role) String() string {
	switch r {
	case RoleIT:
		return "IT"
	case RoleSales:
		return "Sales"
	case RoleHR:
		return "HR"
	case RoleFinance:
		return "Finance"
	case RoleOperations:
		return "Operations"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Code is the integer the classifier was trained with for this role.
func (r Role) Code() int {
	switch r {
	case RoleIT:
		return 0
	case RoleSales:
		return 1
	case RoleHR:
		return 2
	case RoleFinance:
		return 3
	case RoleOperations:
		return 4
	default:
		return -1
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Code() >= 0
}

// ParseRole resolves a display name like "Sales" into a Role. Matching ignores case
// and surrounding whitespace.
func ParseRole(name string) (Role, error) {
	name = strings.TrimSpace(name)
	for _, r := range Roles() {
		if strings.EqualFold(r.String(), name) {
			return r, nil
		}
	}

	return 0, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownRole, name, strings.Join(RoleNames(), ", "))
}

// MarshalText implements encoding.TextMarshaler so roles travel as names in JSON.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
