package train

import "github.com/boardsweep/boardsweep/domain"

// MemberIDs returns the IDs of the given items in input order
func MemberIDs(items []domain.WorkItem) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// DiffMembers returns the member IDs not yet linked beneath the parent,
// preserving member order. Linking only the difference keeps reconciliation
// idempotent: a second run over an unchanged backlog adds nothing.
func DiffMembers(memberIDs []int, linkedIDs []int) []int {
	linked := make(map[int]struct{}, len(linkedIDs))
	for _, id := range linkedIDs {
		linked[id] = struct{}{}
	}

	missing := make([]int, 0)
	for _, id := range memberIDs {
		if _, ok := linked[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
