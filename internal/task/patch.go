package task

import "github.com/kev1903/skrobakios/internal/schedule"

// Patch is a partial update of one item. Nil fields are left unchanged.
type Patch struct {
	ParentID     *string
	Position     *int
	Title        *string
	Duration     *int
	Progress     *int
	StartDate    *schedule.Date
	EndDate      *schedule.Date
	NotBefore    *schedule.Date
	Expanded     *bool
	Dependencies *[]ItemDependency
	ExternalRef  *string
}

func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Fields lists the names of the fields the patch sets.
func (p Patch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.ParentID != nil, "parent_id")
	add(p.Position != nil, "position")
	add(p.Title != nil, "title")
	add(p.Duration != nil, "duration")
	add(p.Progress != nil, "progress")
	add(p.StartDate != nil, "start_date")
	add(p.EndDate != nil, "end_date")
	add(p.NotBefore != nil, "not_before")
	add(p.Expanded != nil, "expanded")
	add(p.Dependencies != nil, "dependencies")
	add(p.ExternalRef != nil, "external_ref")
	return fields
}

func (p Patch) Apply(it *Item) {
	if p.ParentID != nil {
		it.ParentID = *p.ParentID
	}
	if p.Position != nil {
		it.Position = *p.Position
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Duration != nil {
		it.Duration = *p.Duration
	}
	if p.Progress != nil {
		it.Progress = *p.Progress
	}
	if p.StartDate != nil {
		it.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		it.EndDate = *p.EndDate
	}
	if p.NotBefore != nil {
		it.NotBefore = *p.NotBefore
	}
	if p.Expanded != nil {
		it.Expanded = *p.Expanded
	}
	if p.Dependencies != nil {
		it.Dependencies = append([]ItemDependency(nil), (*p.Dependencies)...)
	}
	if p.ExternalRef != nil {
		it.ExternalRef = *p.ExternalRef
	}
}

// Merge returns p with every field set in o overriding p's.
func (p Patch) Merge(o Patch) Patch {
	if o.ParentID != nil {
		p.ParentID = o.ParentID
	}
	if o.Position != nil {
		p.Position = o.Position
	}
	if o.Title != nil {
		p.Title = o.Title
	}
	if o.Duration != nil {
		p.Duration = o.Duration
	}
	if o.Progress != nil {
		p.Progress = o.Progress
	}
	if o.StartDate != nil {
		p.StartDate = o.StartDate
	}
	if o.EndDate != nil {
		p.EndDate = o.EndDate
	}
	if o.NotBefore != nil {
		p.NotBefore = o.NotBefore
	}
	if o.Expanded != nil {
		p.Expanded = o.Expanded
	}
	if o.Dependencies != nil {
		p.Dependencies = o.Dependencies
	}
	if o.ExternalRef != nil {
		p.ExternalRef = o.ExternalRef
	}
	return p
}

// Diff returns the patch that turns before into after.
func Diff(before, after *Item) Patch {
	var p Patch
	if before.ParentID != after.ParentID {
		p.ParentID = &after.ParentID
	}
	if before.Position != after.Position {
		p.Position = &after.Position
	}
	if before.Title != after.Title {
		p.Title = &after.Title
	}
	if before.Duration != after.Duration {
		p.Duration = &after.Duration
	}
	if before.Progress != after.Progress {
		p.Progress = &after.Progress
	}
	if before.StartDate != after.StartDate {
		p.StartDate = &after.StartDate
	}
	if before.EndDate != after.EndDate {
		p.EndDate = &after.EndDate
	}
	if before.NotBefore != after.NotBefore {
		p.NotBefore = &after.NotBefore
	}
	if before.Expanded != after.Expanded {
		p.Expanded = &after.Expanded
	}
	if !equalDependencies(before.Dependencies, after.Dependencies) {
		deps := append([]ItemDependency(nil), after.Dependencies...)
		p.Dependencies = &deps
	}
	if before.ExternalRef != after.ExternalRef {
		p.ExternalRef = &after.ExternalRef
	}
	return p
}

func equalDependencies(a, b []ItemDependency) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
