package domain

// Role is the role field of the stored user record
type Role string

const (
	RoleUser        Role = "user"
	RoleDistributor Role = "distributor"
	RoleAdmin       Role = "admin"
)

// CredentialKind tells which bearer token, if any, is active
type CredentialKind string

const (
	CredentialNone        CredentialKind = "none"
	CredentialUser        CredentialKind = "user"
	CredentialDistributor CredentialKind = "distributor"
)

// PaymentMethod is one of the payment options offered at checkout
type PaymentMethod string

const (
	PaymentEsewa  PaymentMethod = "esewa"
	PaymentKhalti PaymentMethod = "khalti"
	PaymentIPS    PaymentMethod = "ips"
	PaymentCash   PaymentMethod = "cash"
)

// PaymentMethods lists the options in display order
var PaymentMethods = []PaymentMethod{PaymentEsewa, PaymentKhalti, PaymentIPS, PaymentCash}

var paymentAPITokens = map[PaymentMethod]string{
	PaymentEsewa:  "esewa",
	PaymentKhalti: "khalti",
	PaymentIPS:    "ips",
	PaymentCash:   "cod",
}

// IsValid checks if the payment method is one of the offered options
func (m PaymentMethod) IsValid() bool {
	_, ok := paymentAPITokens[m]
	return ok
}

// APIToken returns the value the order API expects for this method
func (m PaymentMethod) APIToken() string {
	return paymentAPITokens[m]
}
