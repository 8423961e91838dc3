package menu

import "testing"

func testTree() []Node {
	return []Node{
		{Key: "home", Label: "Home"},
		{Key: "booking", Label: "Booking", RequiredRoles: Roles(RoleStudent)},
		{
			Key: "schedule", Label: "Schedule", RequiredRoles: Roles(RolePsychologist, RoleManager),
			Children: []Node{
				{Key: "work", Label: "Work"},
				{Key: "approvals", Label: "Approvals", RequiredRoles: Roles(RoleManager)},
			},
		},
	}
}

func keys(nodes []Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Key)
	}
	return out
}

func TestFilter_Student(t *testing.T) {
	got := Filter(testTree(), RoleStudent)
	if len(got) != 2 || got[0].Key != "home" || got[1].Key != "booking" {
		t.Fatalf("student menu = %v", keys(got))
	}
}

func TestFilter_PsychologistPrunesChildren(t *testing.T) {
	got := Filter(testTree(), RolePsychologist)
	if len(got) != 2 || got[1].Key != "schedule" {
		t.Fatalf("psychologist menu = %v", keys(got))
	}
	children := got[1].Children
	if len(children) != 1 || children[0].Key != "work" {
		t.Fatalf("schedule children = %v, want [work]", keys(children))
	}
}

func TestFilter_ManagerSeesApprovals(t *testing.T) {
	got := Filter(testTree(), RoleManager)
	children := got[1].Children
	if len(children) != 2 {
		t.Fatalf("manager schedule children = %v", keys(children))
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	tree := testTree()
	_ = Filter(tree, RolePsychologist)
	if len(tree[2].Children) != 2 {
		t.Fatal("filter must prune a copy, not the source tree")
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleManager.Valid() {
		t.Fatal("manager should be valid")
	}
	if Role("admin").Valid() {
		t.Fatal("unknown role must be invalid")
	}
}
