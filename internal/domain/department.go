package domain

import "time"

// Department is a clearance-granting unit. HeadID points at the account that
// acts on the department's behalf; a department without a head can only be
// acted on by an admin.
type Department struct {
	ID        string
	Name      string
	HeadID    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
