package types

// MetaData is a key/value entry attached to backend customers and orders.
type MetaData struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// AccountStatus values stored as customer metadata. Login is blocked while
// pending; approved or an absent flag both permit login.
const (
	AccountStatusKey      = "account_status"
	AccountStatusPending  = "pending"
	AccountStatusApproved = "approved"
)

// Customer is the commerce backend's customer record, narrowed.
type Customer struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Username  string     `json:"username,omitempty"`
	Billing   *Address   `json:"billing,omitempty"`
	Shipping  *Address   `json:"shipping,omitempty"`
	MetaData  []MetaData `json:"meta_data,omitempty"`
}

// AccountStatus returns the approval flag from metadata, empty when absent.
func (c Customer) AccountStatus() string {
	for _, m := range c.MetaData {
		if m.Key == AccountStatusKey {
			if s, ok := m.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}
