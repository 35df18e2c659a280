package models

// KeyType represents the classification of an API key
type KeyType string

const (
	// KeyTypeDev identifies development keys (the default)
	KeyTypeDev KeyType = "dev"
	// KeyTypeProd identifies production keys
	KeyTypeProd KeyType = "prod"
)

// Valid reports whether t is a known key type
func (t KeyType) Valid() bool {
	return t == KeyTypeDev || t == KeyTypeProd
}

// ValidationStatus is the outcome of looking up a presented key
type ValidationStatus string

const (
	// ValidationValid means the key exists and is active
	ValidationValid ValidationStatus = "VALID"
	// ValidationInactive means the key exists but was deactivated
	ValidationInactive ValidationStatus = "INACTIVE"
	// ValidationInvalid means no key matched
	ValidationInvalid ValidationStatus = "INVALID"
)

const (
	// KeyPrefix is the scheme tag every generated secret starts with
	KeyPrefix = "ssg_"
	// KeySecretBytes is the number of random bytes behind each secret
	KeySecretBytes = 24
	// DefaultKeyName is used when a caller does not supply a label
	DefaultKeyName = "Default"
	// MaxKeyNameLength matches the name column width
	MaxKeyNameLength = 255
)

// TableAPIKeys is the table holding API key rows
const TableAPIKeys = "api_keys"
