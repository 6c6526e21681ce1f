package model

// AccountID indexes the account arena. Zero means "no account".
type AccountID int64

// AccountKind distinguishes internal tree nodes from postable leaves.
type AccountKind string

const (
	KindComposite AccountKind = "composite"
	KindFinal     AccountKind = "final"
)

// NormalSide is the side on which an account's balance naturally grows.
type NormalSide string

const (
	SideDebit  NormalSide = "DEBIT"
	SideCredit NormalSide = "CREDIT"
)

// Valid reports whether s is DEBIT or CREDIT.
func (s NormalSide) Valid() bool {
	return s == SideDebit || s == SideCredit
}

// Account is a node of a chart of accounts. Parent and root are arena ids,
// a chart root has RootID == ID and ParentID == 0.
type Account struct {
	ID          AccountID
	RootID      AccountID
	ParentID    AccountID
	Kind        AccountKind
	Code        string
	Description string
	Currency    string
	NormalSide  NormalSide
	Tags        Tags
}

// IsChart reports whether the account is the root of its own chart.
func (a Account) IsChart() bool {
	return a.ID != 0 && a.RootID == a.ID
}

// IsFinal reports whether the account accepts postings.
func (a Account) IsFinal() bool {
	return a.Kind == KindFinal
}

// Type returns the value of the "type" tag, e.g. EXPENSE.
func (a Account) Type() string {
	v, _ := a.Tags.Get(TagType)
	return v
}
