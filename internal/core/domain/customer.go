package domain

type Customer struct {
	ID          int64  `db:"CustomerID" json:"CustomerID"`
	Description string `db:"CustomerDescription" json:"CustomerDescription"`
	Priority    bool   `db:"Priority" json:"Priority"`
}

type NewCustomer struct {
	Description string `json:"CustomerDescription"`
	Priority    bool   `json:"Priority"`
}

type CustomerPatch struct {
	Description *string `json:"CustomerDescription"`
	Priority    *bool   `json:"Priority"`
}

func (p CustomerPatch) IsEmpty() bool {
	return p.Description == nil && p.Priority == nil
}

// PriorityQuantityThreshold is the largest order quantity that does not
// flag the ordering customer as priority.
const PriorityQuantityThreshold = 10

func ShouldMarkPriority(quantity int) bool {
	return quantity > PriorityQuantityThreshold
}
