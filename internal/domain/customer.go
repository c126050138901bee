package domain

// Customer is the authenticated caller on whose behalf cart and order
// operations run. It is built from a verified token, never from request input.
type Customer struct {
	ID    string
	Name  string
	Phone string
}
