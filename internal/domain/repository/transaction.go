package repository

import "context"

// TransactionManager runs multi-step writes atomically, such as a refresh
// token rotation or a verification update together with its notifications.
type TransactionManager interface {
	// Execute runs fn in one transaction, committing only when fn returns nil.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory returns repositories bound to the running transaction.
type RepositoryFactory interface {
	UserRepo() UserRepository
	RefreshTokenRepo() RefreshTokenRepository
	PropertyRepo() PropertyRepository
	VerificationRepo() VerificationRepository
	NotificationRepo() NotificationRepository
	DeviceRepo() DeviceRepository
}
