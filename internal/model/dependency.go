package model

import "github.com/google/uuid"

// DependencyRule states that records of Dependent reference Parent through Field.
type DependencyRule struct {
	Parent    EntityKind
	Dependent EntityKind
	Field     string
}

// DependencyRules lists every reference that blocks archiving or purging the parent.
var DependencyRules = []DependencyRule{
	{Parent: KindCategory, Dependent: KindProduct, Field: "category_id"},
	{Parent: KindCategory, Dependent: KindServiceType, Field: "category_id"},
	{Parent: KindServiceType, Dependent: KindTransaction, Field: "service_type_id"},
	{Parent: KindGroup, Dependent: KindUser, Field: "group_id"},
	{Parent: KindUser, Dependent: KindSchedule, Field: "staff_id"},
}

// RulesFor returns the rules whose parent is kind.
func RulesFor(kind EntityKind) []DependencyRule {
	var rules []DependencyRule
	for _, r := range DependencyRules {
		if r.Parent == kind {
			rules = append(rules, r)
		}
	}
	return rules
}

// DependentRef identifies a blocking record for error details.
type DependentRef struct {
	Kind    EntityKind `json:"kind"`
	ID      uuid.UUID  `json:"id"`
	Label   string     `json:"label"`
	Context string     `json:"context,omitempty"`
}

// ParentRule states that Child must not be live while its Parent is archived.
type ParentRule struct {
	Child  EntityKind
	Parent EntityKind
	Field  string
}

var parentRules = map[EntityKind]ParentRule{
	KindProduct:     {Child: KindProduct, Parent: KindCategory, Field: "category_id"},
	KindServiceType: {Child: KindServiceType, Parent: KindCategory, Field: "category_id"},
	KindUser:        {Child: KindUser, Parent: KindGroup, Field: "group_id"},
}

// ParentOf returns the parent rule of kind, if it has one.
func ParentOf(kind EntityKind) (ParentRule, bool) {
	r, ok := parentRules[kind]
	return r, ok
}

// LifecycleRecord is the kind-independent view of an archivable row.
type LifecycleRecord struct {
	ID       uuid.UUID
	Key      string // unique key among active records: name or username
	Label    string
	ParentID *uuid.UUID
	ArchiveState
}
