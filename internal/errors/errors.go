package errorz

import "errors"

var ErrErrorWileStartingOTel = errors.New("error while starting OTel")
var ErrConfigNotFound = errors.New("config not found")
var ErrConfigIncomplete = errors.New("server configuration incomplete - missing portal credentials")
var ErrServerError = errors.New("server error")
var ErrDatabaseError = errors.New("database error")

var ErrCredentialsRequired = errors.New("username and password required")
var ErrInvalidCredentials = errors.New("login failed - invalid credentials")
var ErrAuthExpired = errors.New("authentication expired - please login again")
var ErrNotAuthenticated = errors.New("no portal session - login first")
var ErrPortalUnreachable = errors.New("portal unreachable")

var ErrSubscriptionRequired = errors.New("subscription data required")
var ErrIdentityRequired = errors.New("user ID and company ID required")
var ErrSubscriptionNotFound = errors.New("no push subscription found")
var ErrVAPIDNotConfigured = errors.New("VAPID keys not configured")

var ErrUnknownTank = errors.New("tank not found")
var ErrLevelOutOfRange = errors.New("level out of range")
var ErrLedgerUnavailable = errors.New("database not available - cannot persist reading")
