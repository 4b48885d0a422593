package member

// Address is a value: members and deliveries hold copies, never references.
type Address struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
}

type Member struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

// Columns lists the member columns under alias, in ScanTargets order.
func Columns(alias string) string {
	return alias + ".id, " + alias + ".name, " + alias + ".city, " + alias + ".street, " + alias + ".zipcode"
}

// ScanTargets returns the destinations matching Columns.
func ScanTargets(m *Member) []any {
	return []any{&m.ID, &m.Name, &m.Address.City, &m.Address.Street, &m.Address.Zipcode}
}
