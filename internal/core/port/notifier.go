package port

// Notifier is the fire-and-forget toast channel. Core logic never depends on
// delivery succeeding.
//
//go:generate mockgen -source=notifier.go -destination=mock/notifier.go -package=mock
type Notifier interface {
	Success(owner *uint64, message string)
	Warning(owner *uint64, message string)
	Error(owner *uint64, message string)
}
