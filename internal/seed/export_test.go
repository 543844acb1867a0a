package seed

// Exported aliases of package internals for the external seed_test package.
var (
	PackageTypes   = packageTypes
	Packages       = packages
	PaymentMethods = paymentMethods
)

const (
	DefaultAdminEmail    = defaultAdminEmail
	DefaultAdminPassword = defaultAdminPassword
)
