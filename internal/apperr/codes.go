package apperr

// Mapping is the user-facing translation of one backend error code.
type Mapping struct {
	Kind Kind
	Msg  string
}

var codes = map[string]Mapping{
	"auth/user-not-found":         {KindNotFound, "No account found with this email."},
	"auth/wrong-password":         {KindValidation, "Incorrect password."},
	"auth/invalid-credential":     {KindValidation, "Invalid email or password."},
	"auth/email-already-in-use":   {KindConflict, "This email is already registered."},
	"auth/weak-password":          {KindValidation, "Password should be at least 6 characters."},
	"auth/invalid-email":          {KindValidation, "Invalid email address."},
	"auth/missing-password":       {KindValidation, "Please enter your password."},
	"auth/too-many-requests":      {KindDataAccess, "Too many attempts. Please try again later."},
	"auth/user-disabled":          {KindAuthRequired, "This account has been disabled."},
	"auth/no-current-user":        {KindAuthRequired, "Please sign in to continue."},
	"auth/requires-recent-login":  {KindAuthRequired, "Please sign in again to continue."},
	"auth/expired-action-code":    {KindValidation, "This link has expired. Please request a new one."},
	"auth/network-request-failed": {KindDataAccess, "Network error. Please check your connection and try again."},
	"not-found":                   {KindNotFound, "The requested item no longer exists."},
	"already-exists":              {KindConflict, "This item already exists."},
	"permission-denied":           {KindAuthRequired, "You do not have permission to do that."},
	"unauthenticated":             {KindAuthRequired, "Please sign in to continue."},
	"invalid-argument":            {KindValidation, "Some of the details you entered are invalid."},
	"failed-precondition":         {KindConflict, "This action cannot be completed right now."},
	"aborted":                     {KindConflict, "Someone else changed this at the same time. Please try again."},
	"unavailable":                 {KindDataAccess, "Service is temporarily unavailable. Please try again."},
	"deadline-exceeded":           {KindTimeout, MsgTimeout},
	"internal":                    {KindDataAccess, MsgUnexpected},
}

// Lookup returns the mapping for a backend error code.
func Lookup(code string) (Mapping, bool) {
	m, ok := codes[code]
	return m, ok
}

// Message returns the user-facing message for code, falling back to the
// generic message for unknown codes.
func Message(code string) string {
	if m, ok := codes[code]; ok {
		return m.Msg
	}
	return MsgUnexpected
}

// Codes lists every mapped backend code.
func Codes() []string {
	out := make([]string, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	return out
}
