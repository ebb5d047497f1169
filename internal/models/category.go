package models

// Category groups products; ParentID is nil for root categories.
type Category struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	ParentID *int   `json:"parent_id,omitempty" db:"parent_id"`
}

// CategoryNode is a category with its nested children for tree responses.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// BuildCategoryTree nests categories under their parents.
// Categories whose parent is unknown are treated as roots.
func BuildCategoryTree(categories []Category) []*CategoryNode {
	nodes := make(map[int]*CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}

	roots := make([]*CategoryNode, 0)
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
