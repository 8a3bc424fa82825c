package domain

import (
	"sort"
	"time"
)

// Service is a named, grantable capability of the platform.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Promote marks services that are advertised by default.
	Promote bool `json:"promote"`
	// Locked marks services under maintenance, regardless of grants.
	Locked bool `json:"locked"`
}

// ServiceDependency states that holding Service also grants Dependency.
type ServiceDependency struct {
	ServiceID    string `json:"service"`
	DependencyID string `json:"dependency"`
}

// CustomerService grants a service to a customer within an optional
// [Begin, End) window. Nil bounds are open.
type CustomerService struct {
	CustomerID string     `json:"customer"`
	ServiceID  string     `json:"service"`
	Begin      *time.Time `json:"begin,omitempty"`
	End        *time.Time `json:"end,omitempty"`
}

// Active reports whether now falls inside the grant window.
func (cs CustomerService) Active(now time.Time) bool {
	if cs.Begin != nil && now.Before(*cs.Begin) {
		return false
	}
	if cs.End != nil && !now.Before(*cs.End) {
		return false
	}
	return true
}

// AccountService grants a service to a single account.
type AccountService struct {
	AccountID string `json:"account"`
	ServiceID string `json:"service"`
}

// ServiceSet is a set of service ids.
type ServiceSet map[string]struct{}

// NewServiceSet returns a set holding ids.
func NewServiceSet(ids ...string) ServiceSet {
	s := make(ServiceSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s ServiceSet) Add(id string) { s[id] = struct{}{} }

func (s ServiceSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union adds every member of other to s.
func (s ServiceSet) Union(other ServiceSet) {
	for id := range other {
		s.Add(id)
	}
}

// Sorted returns the members in ascending order.
func (s ServiceSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
