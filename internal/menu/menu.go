package menu

// Role identifies the acting user's role. Operations take it as an explicit
// argument; nothing in this package reads ambient session state.
type Role string

const (
	RoleStudent      Role = "student"
	RolePsychologist Role = "psychologist"
	RoleManager      Role = "manager"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RolePsychologist, RoleManager:
		return true
	}
	return false
}

// Node is one entry in the navigation tree. A node with no RequiredRoles is
// visible to everyone; otherwise the actor's role must be listed. Visibility
// does not cascade upward: a parent stays visible if any child survives.
type Node struct {
	Key           string        `json:"key"`
	Label         string        `json:"label"`
	Path          string        `json:"path,omitempty"`
	RequiredRoles map[Role]bool `json:"-"`
	Children      []Node        `json:"children,omitempty"`
}

func (n Node) visibleTo(role Role) bool {
	if len(n.RequiredRoles) == 0 {
		return true
	}
	return n.RequiredRoles[role]
}

// Filter returns a pruned copy of nodes containing only entries visible to
// role. A parent that is itself visible is kept even if all its children are
// filtered out; a parent hidden from the role is dropped with its subtree.
func Filter(nodes []Node, role Role) []Node {
	var out []Node
	for _, n := range nodes {
		if !n.visibleTo(role) {
			continue
		}
		kept := n
		kept.Children = Filter(n.Children, role)
		out = append(out, kept)
	}
	return out
}

// Roles builds a RequiredRoles set.
func Roles(roles ...Role) map[Role]bool {
	set := make(map[Role]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}

// Default is the platform navigation tree.
var Default = []Node{
	{Key: "home", Label: "Home", Path: "/"},
	{Key: "booking", Label: "Book Appointment", Path: "/booking", RequiredRoles: Roles(RoleStudent)},
	{Key: "surveys", Label: "Self Assessments", Path: "/surveys", RequiredRoles: Roles(RoleStudent)},
	{
		Key: "schedule", Label: "My Schedule", RequiredRoles: Roles(RolePsychologist),
		Children: []Node{
			{Key: "work-schedule", Label: "Work Schedule", Path: "/schedule/work"},
			{Key: "calendar", Label: "Appointment Calendar", Path: "/schedule/calendar"},
			{Key: "leave", Label: "Leave Requests", Path: "/schedule/leave"},
		},
	},
	{
		Key: "manage", Label: "Management", RequiredRoles: Roles(RoleManager),
		Children: []Node{
			{Key: "approvals", Label: "Leave Approvals", Path: "/manage/leave"},
			{Key: "psychologists", Label: "Psychologists", Path: "/manage/psychologists"},
		},
	},
}
