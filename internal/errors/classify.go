package errors

// Category is the stable classification of a fault.
type Category string

const (
	CategoryNetwork    Category = "NETWORK"
	CategoryAuth       Category = "AUTH"
	CategoryValidation Category = "VALIDATION"
	CategoryServer     Category = "SERVER"
	CategoryUnknown    Category = "UNKNOWN"
)

// Categories lists every category in classification order.
var Categories = []Category{
	CategoryAuth,
	CategoryServer,
	CategoryValidation,
	CategoryNetwork,
	CategoryUnknown,
}

// Messages maps a category to a user-facing message.
type Messages map[Category]string

var defaultMessages = Messages{
	CategoryNetwork:    "Connection error. Please check your internet connection.",
	CategoryAuth:       "Authentication error. Please log in again.",
	CategoryValidation: "Invalid data. Please check your information.",
	CategoryServer:     "Server error. Please try again later.",
	CategoryUnknown:    "Unexpected error. Please try again.",
}

// Per-screen overrides.
var (
	LoginMessages = Messages{
		CategoryAuth:       "Invalid username or password.",
		CategoryValidation: "Please enter username and password.",
		CategoryNetwork:    "Connection error. Please check your internet connection and try again.",
	}

	ProductsMessages = Messages{
		CategoryNetwork: "Could not load products. Please check your connection.",
		CategoryServer:  "Server error. Products are not available.",
	}
)

// DefaultMessage returns the fixed message for c.
func DefaultMessage(c Category) string {
	if msg, ok := defaultMessages[c]; ok {
		return msg
	}
	return defaultMessages[CategoryUnknown]
}

// Classify maps a fault to exactly one category. The first matching rule wins.
func Classify(f Fault) Category {
	switch v := f.(type) {
	case *ResponseFault:
		if v == nil {
			return CategoryUnknown
		}
		switch {
		case v.Status == 401 || v.Status == 403:
			return CategoryAuth
		case v.Status >= 500:
			return CategoryServer
		case v.Status >= 400:
			return CategoryValidation
		}
		return CategoryUnknown
	case *TransportFault:
		if v == nil {
			return CategoryUnknown
		}
		return CategoryNetwork
	case *InputFault:
		if v == nil {
			return CategoryUnknown
		}
		return CategoryValidation
	default:
		return CategoryUnknown
	}
}

// ClassifyError is Classify applied to whatever fault err carries.
func ClassifyError(err error) Category {
	return Classify(AsFault(err))
}

// MessageFor resolves the message shown for f. A plain message on a fault
// without a response wins, then the override for c, then the default.
func MessageFor(f Fault, c Category, overrides Messages) string {
	if f != nil {
		if msg, ok := plainMessage(f); ok {
			return msg
		}
	}
	if msg, ok := overrides[c]; ok && msg != "" {
		return msg
	}
	return DefaultMessage(c)
}

// IsRetryableCategory reports whether faults of category c are worth retrying.
func IsRetryableCategory(c Category) bool {
	return c == CategoryNetwork || c == CategoryServer
}
